package filter

import (
	"errors"
	"testing"

	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRoundTrip(t *testing.T) {
	sets := map[string]Set{
		"empty":  {},
		"single": NewSet(NewExpr(TextContains("golang"))),
		"mixed": NewSet(
			NewExpr(SourceEquals(chanA), SourceEquals(chanB), SourceTypeIs("rss")),
			NewExpr(MediaIs(model.MediaVideo)),
			NewExpr(TextContains("")),
		),
	}

	for name, set := range sets {
		t.Run(name, func(t *testing.T) {
			encoded, err := EncodeSet(set)
			require.NoError(t, err)

			decoded, err := DecodeSet(encoded)
			require.NoError(t, err)
			assert.True(t, decoded.Equal(set), "got %s want %s", decoded, set)
		})
	}
}

func TestEncodeStripsRemovalMarkers(t *testing.T) {
	set := NewSet(
		NewExpr(TextContains("keep"), RemovalMarker()),
		NewExpr(RemovalMarker()),
	)

	encoded, err := EncodeSet(set)
	require.NoError(t, err)

	decoded, err := DecodeSet(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(NewSet(NewExpr(TextContains("keep")))))
}

func TestDecodeSet(t *testing.T) {
	t.Run("blank input is the empty set", func(t *testing.T) {
		set, err := DecodeSet("  ")
		require.NoError(t, err)
		assert.True(t, set.IsEmpty())
	})

	t.Run("wire format", func(t *testing.T) {
		set, err := DecodeSet(`[[{"kind":"channel","source":"irc","channel":"#a"}],[{"kind":"text","query":"ship"}]]`)
		require.NoError(t, err)
		assert.True(t, set.Equal(NewSet(NewExpr(SourceEquals(chanA)), NewExpr(TextContains("ship")))))
	})

	malformed := []string{
		`not json`,
		`[[{"kind":"teleport"}]]`,
		`[[]]`,
		`[[{"kind":"removing"}]]`,
	}
	for _, in := range malformed {
		t.Run(in, func(t *testing.T) {
			_, err := DecodeSet(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestDecodeSetNormalisesMedia(t *testing.T) {
	set, err := DecodeSet(`[[{"kind":"media","media":"IMAGE"}],[{"kind":"media","media":""},{"kind":"media","media":" Image "}]]`)
	require.NoError(t, err)
	assert.True(t, set.Equal(NewSet(
		NewExpr(MediaIs(model.MediaImage)),
		NewExpr(MediaIs(model.MediaNone), MediaIs(model.MediaImage)),
	)))

	assert.True(t, set.Matches(model.Event{Media: model.MediaImage}))
	assert.False(t, set.Matches(model.Event{Media: model.MediaVideo}))

	plain, err := DecodeSet(`[[{"kind":"media","media":""}]]`)
	require.NoError(t, err)
	assert.True(t, plain.Matches(model.Event{Body: "no attachment"}))
}
