package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsharvest/internal/selector"
)

var (
	testPage = `<!doctype html>
		<html lang="en">
			<head>
    			<meta charset="utf-8">
    			<title>Home</title>
			</head>
			<body>
    			<h1>Mock</h1>
    			<a href="https://golang1.org">Golang1</a>
				<a href="/politik/artikel-a">Golang1</a>
				<a href="//cdn.example.test/x">Golang1</a>
				<time datetime="2018-05-01">1. Mai</time>
			</body>
		</html>`
)

func TestPage_GetLinks(t *testing.T) {
	tPage, err := NewPage("https://example.test/news/", strings.NewReader(testPage), nil)
	require.NoError(t, err)
	links := tPage.GetLinks()
	want := []string{
		"https://golang1.org",
		"/politik/artikel-a",
		"//cdn.example.test/x",
	}
	assert.ElementsMatch(t, want, links)
	assert.Equal(t, "https://example.test/news/", tPage.URL())
}

func TestPage_Resolve(t *testing.T) {
	tPage, err := NewPage("https://example.test/news/index.html", strings.NewReader(testPage), nil)
	require.NoError(t, err)

	tests := []struct {
		href string
		want string
	}{
		{"/a", "https://example.test/a"},
		{"b?x=1#top", "https://example.test/news/b?x=1#top"},
		{"//cdn.example.test/x", "https://cdn.example.test/x"},
		{"http://other.test/", "http://other.test/"},
	}
	for _, tt := range tests {
		got, err := tPage.Resolve(tt.href)
		require.NoError(t, err, tt.href)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"mailto:someone@example.test", "javascript:void(0)", "%zz"} {
		_, err := tPage.Resolve(bad)
		assert.Error(t, err, bad)
	}
}

func TestPage_Select(t *testing.T) {
	tPage, err := NewPage("https://example.test/", strings.NewReader(testPage), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2018-05-01"}, tPage.Select(selector.MustCompile("time::attr(datetime)")))
	assert.Empty(t, tPage.Select(selector.MustCompile("article p")))
}

func TestNewPage_RelativeURL(t *testing.T) {
	_, err := NewPage("/relative", strings.NewReader(testPage), nil)
	assert.ErrorIs(t, err, errIncorrectURL)
}
