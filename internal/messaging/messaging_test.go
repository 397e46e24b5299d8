package messaging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrMessageNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("delete 5: %w", ErrMessageNotFound)))
	assert.False(t, IsNotFound(errors.New("timeout")))
	assert.False(t, IsNotFound(nil))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a&lt;b&gt; &amp; &#34;c&#34;", Escape(`a<b> & "c"`))
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	ref, err := r.Send(ctx, 10, "hello", Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), ref.ChatID)

	require.NoError(t, r.Edit(ctx, ref, "bye", Options{}))
	text, ok := r.Text(ref)
	require.True(t, ok)
	assert.Equal(t, "bye", text)

	require.NoError(t, r.Delete(ctx, ref))
	assert.ErrorIs(t, r.Delete(ctx, ref), ErrMessageNotFound)
	assert.ErrorIs(t, r.Edit(ctx, ref, "again", Options{}), ErrMessageNotFound)

	assert.Len(t, r.Calls("delete"), 2)
	assert.Len(t, r.Calls(""), 5)
}

func TestUpdate(t *testing.T) {
	u := Update{UserID: 1, ChatID: 2, MessageID: 3, Text: "/start"}
	assert.False(t, u.IsCallback())
	assert.Equal(t, int64(2), u.Ref().ChatID)
	assert.Equal(t, 3, u.Ref().MessageID)

	u.CallbackID = "cb-1"
	assert.True(t, u.IsCallback())
}

func TestRecorder_DocumentsAndAnswers(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	require.NoError(t, r.SendDocument(ctx, 7, "/tmp/vault.db", "backup"))
	require.NoError(t, r.AnswerCallback(ctx, "cb", "denied", true))

	docs := r.Calls("document")
	require.Len(t, docs, 1)
	assert.Equal(t, "/tmp/vault.db", docs[0].Path)
	assert.Equal(t, int64(7), docs[0].Ref.ChatID)

	answers := r.Calls("answer")
	require.Len(t, answers, 1)
	assert.True(t, answers[0].Alert)
}
