package tags

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/notes-bin/imagehoster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	byName  map[string]*model.Tag
	created int
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{byName: map[string]*model.Tag{}}
}

func (s *memStore) GetTagByName(_ context.Context, name string) (*model.Tag, error) {
	if name == s.failOn {
		return nil, errors.New("boom")
	}
	return s.byName[name], nil
}

func (s *memStore) CreateTag(_ context.Context, name string) (*model.Tag, error) {
	if tag, ok := s.byName[name]; ok {
		return tag, nil
	}
	s.created++
	tag := &model.Tag{ID: fmt.Sprintf("tag-%d", s.created), Name: name}
	s.byName[name] = tag
	return tag, nil
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "single", input: "nature", want: []string{"nature"}},
		{name: "trims whitespace", input: " nature ,  sky", want: []string{"nature", "sky"}},
		{name: "trailing comma", input: "nature,sky,", want: []string{"nature", "sky"}},
		{name: "double comma", input: "nature,,sky", want: []string{"nature", "sky"}},
		{name: "whitespace only token", input: "nature,   ,sky", want: []string{"nature", "sky"}},
		{name: "duplicates keep first", input: "red,blue,red", want: []string{"red", "blue"}},
		{name: "case sensitive", input: "Red,red", want: []string{"Red", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.input))
		})
	}
}

func TestNormalize_CreatesOnlyMissingTags(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.byName["sky"] = &model.Tag{ID: "existing", Name: "sky"}

	got, err := Normalize(ctx, "nature, sky", store)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "nature", got[0].Name)
	assert.Equal(t, model.Tag{ID: "existing", Name: "sky"}, got[1])
	assert.Equal(t, 1, store.created)
}

func TestNormalize_ReusesIdentities(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	first, err := Normalize(ctx, "red,blue", store)
	require.NoError(t, err)
	second, err := Normalize(ctx, "red,blue", store)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.created)
}

func TestNormalize_DedupsWithinInput(t *testing.T) {
	store := newMemStore()

	got, err := Normalize(context.Background(), "red,red", store)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNormalize_LookupError(t *testing.T) {
	store := newMemStore()
	store.failOn = "bad"

	_, err := Normalize(context.Background(), "ok,bad", store)
	assert.Error(t, err)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "a", Stringify([]model.Tag{{Name: "a"}}))
	assert.Equal(t, "a,b,c", Stringify([]model.Tag{{Name: "a"}, {Name: "b"}, {Name: "c"}}))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"", "nature", "nature,sky", "a b,c-d,e_f"} {
		got, err := Normalize(context.Background(), s, newMemStore())
		require.NoError(t, err)
		assert.Equal(t, s, Stringify(got))
	}
}
