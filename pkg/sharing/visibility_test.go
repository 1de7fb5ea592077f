package sharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	owner  string
	shared []string
}

func (i item) Owner() string        { return i.owner }
func (i item) Recipients() []string { return i.shared }

func TestVisible(t *testing.T) {
	it := item{owner: "a", shared: []string{"b", "c"}}

	tests := []struct {
		user string
		want bool
	}{
		{"a", true},
		{"b", true},
		{"c", true},
		{"d", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Visible(it, tt.user), "user %q", tt.user)
	}
}

func TestVisibleWithEmptyShareList(t *testing.T) {
	it := item{owner: "a", shared: []string{}}
	assert.True(t, Visible(it, "a"))
	assert.False(t, Visible(it, "b"))
}

func TestSharedWithMe(t *testing.T) {
	it := item{owner: "a", shared: []string{"b"}}
	assert.False(t, SharedWithMe(it, "a"))
	assert.True(t, SharedWithMe(it, "b"))
	assert.False(t, SharedWithMe(it, "c"))
}

func TestUnshareRemovesVisibility(t *testing.T) {
	it := item{owner: "a", shared: []string{"b"}}
	assert.True(t, Visible(it, "b"))

	it.shared = NormalizeRecipients(nil)
	assert.False(t, Visible(it, "b"))
	assert.True(t, Visible(it, "a"))
}

func TestFilter(t *testing.T) {
	items := []item{
		{owner: "a"},
		{owner: "b", shared: []string{"a"}},
		{owner: "b"},
	}
	assert.Len(t, Filter(items, "a", Visible), 2)
	assert.Equal(t, []item{items[1]}, Filter(items, "a", SharedWithMe))
}

func TestNormalizeRecipients(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeRecipients(nil))
	assert.Equal(t, []string{"b", "c"}, NormalizeRecipients([]string{"b", "", "c", "b"}))
}

func TestAudience(t *testing.T) {
	got := Audience("a", []string{"b"}, []string{"c", "b", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
