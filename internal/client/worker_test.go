package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresenter struct {
	shown     []IncomingPush
	hasWindow bool
	focused   []string
	opened    []string
}

func (f *fakePresenter) Show(n IncomingPush) error { f.shown = append(f.shown, n); return nil }
func (f *fakePresenter) FocusWindow(url string) bool {
	f.focused = append(f.focused, url)
	return f.hasWindow
}
func (f *fakePresenter) OpenWindow(url string) error { f.opened = append(f.opened, url); return nil }

func TestHandlePushRendersNotification(t *testing.T) {
	p := &fakePresenter{}
	w := NewWorker(p, nil)

	err := w.HandlePush([]byte(`{"title":"New episode available","body":"One Piece ep 1101","link":"/watch/one-piece/1101"}`))
	require.NoError(t, err)

	require.Len(t, p.shown, 1)
	assert.Equal(t, "New episode available", p.shown[0].Title)
	assert.Equal(t, "/watch/one-piece/1101", p.shown[0].Link)
}

func TestHandlePushDefaultsTitle(t *testing.T) {
	p := &fakePresenter{}
	w := NewWorker(p, nil)

	require.NoError(t, w.HandlePush([]byte(`{"body":"hello"}`)))
	require.Len(t, p.shown, 1)
	assert.Equal(t, "FilmSub", p.shown[0].Title)
}

func TestHandlePushRejectsMalformedPayload(t *testing.T) {
	p := &fakePresenter{}
	w := NewWorker(p, nil)

	assert.Error(t, w.HandlePush([]byte(`not-json`)))
	assert.Empty(t, p.shown)
}

func TestHandleActivationFocusesExistingWindow(t *testing.T) {
	p := &fakePresenter{hasWindow: true}
	w := NewWorker(p, nil)

	require.NoError(t, w.HandleActivation("/watch/one-piece/1101"))
	assert.Equal(t, []string{"/watch/one-piece/1101"}, p.focused)
	assert.Empty(t, p.opened)
}

func TestHandleActivationOpensNewWindow(t *testing.T) {
	p := &fakePresenter{hasWindow: false}
	w := NewWorker(p, nil)

	require.NoError(t, w.HandleActivation(""))
	assert.Equal(t, []string{"/"}, p.focused)
	assert.Equal(t, []string{"/"}, p.opened)
}
