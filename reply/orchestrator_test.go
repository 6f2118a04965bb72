package reply

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hazyhaar/repli/completion"
	"github.com/hazyhaar/repli/dbopen"
	"github.com/hazyhaar/repli/dom"
	"github.com/hazyhaar/repli/dom/htmldom"
	"github.com/hazyhaar/repli/settings"
	"github.com/hazyhaar/repli/site"
	"github.com/hazyhaar/repli/writer"
)

const replyPage = `<html><body>
<article data-testid="tweet">
  <div data-testid="User-Name"><div><span>Ada</span></div></div>
  <div data-testid="tweetText">Hello there</div>
</article>
<div id="reply-box">
  <div data-testid="tweetTextarea_0" role="textbox" contenteditable="true">draft</div>
  <div id="buttons"><div data-testid="tweetButton"><span>Reply</span></div></div>
</div>
</body></html>`

const triggerID = "trg_1"

type completerFunc func(ctx context.Context, r completion.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, r completion.Request) (string, error) {
	return f(ctx, r)
}

type fixture struct {
	doc   *htmldom.Document
	clip  *writer.MemoryClipboard
	store *settings.Store
	orch  *Orchestrator
}

func newFixture(t *testing.T, page string, c completion.Completer) *fixture {
	t.Helper()
	ctx := context.Background()

	d, err := htmldom.ParseString(page, htmldom.WithURL("https://x.com/compose/post"))
	require.NoError(t, err)

	root, err := d.Root(ctx)
	require.NoError(t, err)
	if buttons, _ := root.Query("#buttons"); buttons != nil {
		anchor, err := buttons.Query(`[data-testid="tweetButton"]`)
		require.NoError(t, err)
		_, err = d.InsertTrigger(ctx, buttons, anchor, dom.TriggerSpec{ID: triggerID})
		require.NoError(t, err)
	}

	store, err := settings.New(dbopen.OpenMemory(t))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, settings.KeyAPIKey, "sk-test"))

	a, _ := site.ByName("twitter")
	clip := &writer.MemoryClipboard{}
	orch, err := New(Config{
		Adapter:   a,
		Page:      d,
		Writer:    &writer.Paste{Editor: d, Clipboard: clip},
		Completer: c,
		Settings:  store,
	})
	require.NoError(t, err)
	return &fixture{doc: d, clip: clip, store: store, orch: orch}
}

func (f *fixture) text(t *testing.T, sel string) string {
	t.Helper()
	root, err := f.doc.Root(context.Background())
	require.NoError(t, err)
	n, err := root.Query(sel)
	require.NoError(t, err)
	require.NotNil(t, n, sel)
	s, err := n.Text()
	require.NoError(t, err)
	return s
}

func (f *fixture) triggerDisabled(t *testing.T) bool {
	t.Helper()
	n, err := f.doc.FindTrigger(context.Background(), triggerID)
	require.NoError(t, err)
	_, disabled, _ := n.Attribute("disabled")
	return disabled
}

const inputSel = `[data-testid="tweetTextarea_0"]`

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{`"Hello world"`, "Hello world"},
		{"Hello world", "Hello world"},
		{`"Hello`, "Hello"},
		{`Hello"`, "Hello"},
		{`""Hello""`, `"Hello"`},
		{`say "hi" back`, `say "hi" back`},
		{`"`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestActivateSuccess(t *testing.T) {
	var gotReq completion.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"\"Hello world\""}}]}`))
	}))
	defer server.Close()
	client := completion.NewClient(completion.WithEndpoint(server.URL))

	f := newFixture(t, replyPage, completerFunc(func(ctx context.Context, r completion.Request) (string, error) {
		gotReq = r
		return client.Complete(ctx, r)
	}))

	out := f.orch.Activate(context.Background(), triggerID)
	require.True(t, out.OK(), "err: %v", out.Err)
	require.Equal(t, "Hello world", out.Text)

	require.Equal(t, "Hello world", f.text(t, inputSel))
	cur, _ := f.clip.ReadText(context.Background())
	require.Empty(t, cur, "clipboard must be cleared")
	require.Equal(t, []string{"Hello world", ""}, f.clip.Writes())

	require.False(t, f.triggerDisabled(t))
	require.Empty(t, f.doc.Panels())

	require.Equal(t, settings.DefaultModel, gotReq.Model)
	require.Contains(t, gotReq.Prompt, "Here is the tweet, by Ada:\nHello there")
	require.NotContains(t, gotReq.Prompt, "extremely important")
}

func TestActivateTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	f := newFixture(t, replyPage, completion.NewClient(completion.WithEndpoint(server.URL)))
	out := f.orch.Activate(context.Background(), triggerID)

	require.ErrorIs(t, out.Err, ErrTransportFailure)
	require.Equal(t, []string{GenericError}, f.doc.Panels())
	require.False(t, f.triggerDisabled(t), "trigger must be idle and enabled")
	require.Equal(t, "draft", f.text(t, inputSel), "input must be untouched")
	require.Empty(t, f.clip.Writes())
}

func TestActivateMalformedResponse(t *testing.T) {
	for _, body := range []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{}}]}`,
		`{"choices":[{"message":{"content":null}}]}`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		f := newFixture(t, replyPage, completion.NewClient(completion.WithEndpoint(server.URL)))
		out := f.orch.Activate(context.Background(), triggerID)
		server.Close()

		require.ErrorIs(t, out.Err, ErrMalformedResponse, body)
		require.Equal(t, []string{GenericError}, f.doc.Panels(), body)
		require.False(t, f.triggerDisabled(t), body)
		require.Equal(t, "draft", f.text(t, inputSel), "%s: input must be untouched", body)
		require.Empty(t, f.clip.Writes(), body)
	}
}

func TestActivateWhilePending(t *testing.T) {
	// The settings database is closed on cleanup, after this check.
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, replyPage, completerFunc(func(ctx context.Context, r completion.Request) (string, error) {
		calls.Add(1)
		close(entered)
		<-release
		return "reply", nil
	}))

	var wg sync.WaitGroup
	var first Outcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = f.orch.Activate(context.Background(), triggerID)
	}()

	<-entered
	require.True(t, f.orch.Pending(triggerID))
	require.True(t, f.triggerDisabled(t), "pending trigger must be disabled")

	// A click on the disabled trigger is swallowed by the page, and a
	// direct second activation is rejected.
	require.NoError(t, f.doc.Click(triggerID))
	select {
	case <-f.doc.Activations():
		t.Fatal("disabled trigger delivered an activation")
	default:
	}
	second := f.orch.Activate(context.Background(), triggerID)
	require.ErrorIs(t, second.Err, ErrBusy)

	close(release)
	wg.Wait()

	require.True(t, first.OK(), "err: %v", first.Err)
	require.Equal(t, int32(1), calls.Load())
	require.False(t, f.orch.Pending(triggerID))
	require.False(t, f.triggerDisabled(t))
}

func TestActivateMissingPost(t *testing.T) {
	page := strings.Replace(replyPage, `data-testid="tweetText"`, `data-testid="other"`, 1)
	var calls atomic.Int32
	f := newFixture(t, page, completerFunc(func(context.Context, completion.Request) (string, error) {
		calls.Add(1)
		return "x", nil
	}))

	out := f.orch.Activate(context.Background(), triggerID)
	require.ErrorIs(t, out.Err, ErrElementNotFound)
	require.Equal(t, []string{GenericError}, f.doc.Panels())
	require.Zero(t, calls.Load())
	require.False(t, f.triggerDisabled(t))
}

func TestActivateUnknownTrigger(t *testing.T) {
	f := newFixture(t, replyPage, completerFunc(func(context.Context, completion.Request) (string, error) {
		t.Fatal("completer must not be called")
		return "", nil
	}))
	out := f.orch.Activate(context.Background(), "trg_gone")
	require.ErrorIs(t, out.Err, ErrElementNotFound)
	require.Empty(t, f.doc.Panels(), "a vanished trigger fails silently")
}

func TestActivateComposerDetached(t *testing.T) {
	var f *fixture
	f = newFixture(t, replyPage, completerFunc(func(context.Context, completion.Request) (string, error) {
		// The user navigated away while the request was in flight.
		require.NoError(t, f.doc.Remove("#reply-box"))
		return "late reply", nil
	}))

	out := f.orch.Activate(context.Background(), triggerID)
	require.ErrorIs(t, out.Err, ErrDetached)
	require.Empty(t, f.doc.Panels(), "a stale response is discarded silently")
	require.Empty(t, f.clip.Writes())
}

func TestSettingsReadPerActivation(t *testing.T) {
	var mu sync.Mutex
	var seen []completion.Request
	f := newFixture(t, replyPage, completerFunc(func(_ context.Context, r completion.Request) (string, error) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
		return "ok", nil
	}))
	ctx := context.Background()

	require.True(t, f.orch.Activate(ctx, triggerID).OK())
	require.NoError(t, f.store.SetMany(ctx, map[string]string{
		settings.KeyAPIKey:             "sk-rotated",
		settings.KeyModel:              "gpt-4o",
		settings.KeyCustomInstructions: "Answer in French.",
	}))
	require.True(t, f.orch.Activate(ctx, triggerID).OK())

	require.Len(t, seen, 2)
	require.Equal(t, "sk-test", seen[0].APIKey)
	require.Equal(t, "sk-rotated", seen[1].APIKey)
	require.Equal(t, "gpt-4o", seen[1].Model)
	require.Contains(t, seen[1].Prompt, "These instructions are extremely important. Answer in French.")
}

func TestActivateOutcomeCallback(t *testing.T) {
	var got []Outcome
	f := newFixture(t, replyPage, completerFunc(func(context.Context, completion.Request) (string, error) {
		return `"hi"`, nil
	}))
	f.orch.cfg.OnOutcome = func(id string, o Outcome, _ time.Duration) {
		require.Equal(t, triggerID, id)
		got = append(got, o)
	}
	f.orch.Activate(context.Background(), triggerID)
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0].Text)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
