package pdftext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testcasecraft/api/internal/pdftext/pdftest"
)

type fakePages struct {
	pages map[int]string
	errs  map[int]error
	panic map[int]bool
	n     int
}

func (f fakePages) PageCount() int { return f.n }

func (f fakePages) PageText(i int) (string, error) {
	if f.panic[i] {
		panic("corrupt object stream")
	}
	if err := f.errs[i]; err != nil {
		return "", err
	}
	return f.pages[i], nil
}

func TestExtract_FailedPageContributesEmptyString(t *testing.T) {
	src := fakePages{
		n:     3,
		pages: map[int]string{1: "Login Requirements", 3: "Logout\n"},
		errs:  map[int]error{2: errors.New("missing content stream")},
	}

	got := Extract(src, nil)

	assert.Equal(t, "Login Requirements\nLogout\n", got.Content)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, []int{2}, got.FailedPages)
}

func TestExtract_PanickingPageIsRecovered(t *testing.T) {
	src := fakePages{n: 2, pages: map[int]string{2: "ok"}, panic: map[int]bool{1: true}}

	var got Text
	require.NotPanics(t, func() { got = Extract(src, nil) })

	assert.Equal(t, "ok\n", got.Content)
	assert.Equal(t, []int{1}, got.FailedPages)
}

func TestExtract_EmptyDocument(t *testing.T) {
	got := Extract(fakePages{n: 2}, nil)

	assert.Equal(t, "", got.Content)
	assert.Empty(t, got.FailedPages)
}

func TestFromBytes_NotAPDF(t *testing.T) {
	_, err := FromBytes([]byte("this is plain text, not a pdf"), nil)
	assert.Error(t, err)
}

func TestFromBytes_SimpleFont(t *testing.T) {
	got, err := FromBytes(pdftest.Build(pdftest.Page{Text: "Login", Font: pdftest.Simple}), nil)
	require.NoError(t, err)

	assert.Equal(t, "Login\n", got.Content)
	assert.Equal(t, 1, got.PageCount)
	assert.Empty(t, got.FailedPages)
}

func TestFromBytes_IdentityEncodedFont(t *testing.T) {
	got, err := FromBytes(pdftest.Build(pdftest.Page{Text: "Login", Font: pdftest.CID}), nil)
	require.NoError(t, err)

	assert.Equal(t, "Login\n", got.Content)
	assert.Empty(t, got.FailedPages)
}

func TestFromBytes_PagesInOrder(t *testing.T) {
	b := pdftest.Build(
		pdftest.Page{Text: "Scope", Font: pdftest.Simple},
		pdftest.Page{},
		pdftest.Page{Text: "Résumé upload", Font: pdftest.CID},
	)

	got, err := FromBytes(b, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, "Scope\nRésumé upload\n", got.Content)
	assert.Empty(t, got.FailedPages)
}

func TestFromBytes_BlankPage(t *testing.T) {
	got, err := FromBytes(pdftest.Build(pdftest.Page{}), nil)
	require.NoError(t, err)

	assert.Equal(t, "", got.Content)
	assert.Equal(t, 1, got.PageCount)
	assert.Empty(t, got.FailedPages)
}

func TestTruncate(t *testing.T) {
	s, cut := Truncate("abcdef", 4)
	assert.Equal(t, "abcd", s)
	assert.True(t, cut)

	s, cut = Truncate("ab", 4)
	assert.Equal(t, "ab", s)
	assert.False(t, cut)

	s, cut = Truncate("привет", 3)
	assert.Equal(t, "при", s)
	assert.True(t, cut)

	s, cut = Truncate("abc", 0)
	assert.Equal(t, "abc", s)
	assert.False(t, cut)
}
