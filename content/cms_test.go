package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiRoot = "/content/published/api/v1.1/items"

func asset(id string, formats ...string) string {
	var rs []string
	for _, name := range []string{"Thumbnail", "Small"} {
		width := 150
		if name == "Small" {
			width = 300
		}
		var fs []string
		for _, f := range formats {
			fs = append(fs, fmt.Sprintf(`{"format":%q,"metadata":{"width":%d},"links":[{"href":"https://cdn.test/%s/%s.%s","rel":"self"}]}`,
				f, width, id, strings.ToLower(name), f))
		}
		rs = append(rs, fmt.Sprintf(`{"name":%q,"formats":[%s]}`, name, strings.Join(fs, ",")))
	}
	return fmt.Sprintf(`{"id":%q,"type":"DigitalAsset","fields":{
		"native":{"links":[{"href":"https://cdn.test/%s/native","rel":"self"}]},
		"metadata":{"width":"1200","height":"800"},
		"renditions":[%s]}}`, id, id, strings.Join(rs, ","))
}

type fakeCMS struct {
	items   map[string]string
	lists   map[string]string // q substring -> response
	fail    map[string]int    // item id -> status
	pageLog []string
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{
		items: map[string]string{
			"t1": `{"id":"t1","type":"OCEGettingStartedTopic","name":"Travel","description":"Trips","fields":{"thumbnail":{"id":"img-t1"}}}`,
			"t2": `{"id":"t2","type":"OCEGettingStartedTopic","name":"Food","fields":{}}`,
			"a1": `{"id":"a1","type":"OCEGettingStartedArticle","name":"Lisbon in a day","fields":{
				"topic":{"id":"t1","name":"Travel"},
				"author":{"id":"au1","name":"Ana","fields":{"avatar":{"id":"img-au1"}}},
				"image":{"id":"img-a1"},
				"image_caption":"Tram 28",
				"article_content":"<p>Hi</p><script>evil()</script>",
				"published_date":{"value":"2024-03-01T10:00:00.000Z","timezone":"UTC"}}}`,
			"img-t1":  asset("img-t1", "jpg", "webp"),
			"img-a1":  asset("img-a1", "jpg", "webp"),
			"img-a2":  asset("img-a2", "webp"),
			"img-au1": asset("img-au1", "jpg", "webp"),
			"img-co":  asset("img-co", "jpg", "webp"),
		},
		lists: map[string]string{
			TypeHomePage: `{"items":[{"id":"home","type":"OCEGettingStartedHomePage","name":"HomePage","fields":{
				"company_name":"Cafe Supremo","company_thumbnail":{"id":"img-co"},
				"topics":[{"id":"t1"},{"id":"t2"}],"about_url":"https://a.test","contact_url":"https://c.test"}}],"hasMore":false}`,
			`fields.topic eq "t1"`: `{"items":[
				{"id":"a1","name":"Lisbon in a day","description":"d1","fields":{"image":{"id":"img-a1"},"published_date":{"value":"2024-03-01T10:00:00.000Z"}}},
				{"id":"a2","name":"Porto","description":"d2","fields":{"image":{"id":"img-a2"},"published_date":{"value":"2024-02-01T10:00:00.000Z"}}}],"hasMore":false}`,
		},
		fail: map[string]int{},
	}
}

func (f *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("channelToken") != "tok" {
		http.Error(w, "missing channel token", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == apiRoot {
		q := r.URL.Query().Get("q")
		if q == `(type eq "OCEGettingStartedArticle")` {
			f.pageLog = append(f.pageLog, r.URL.Query().Get("offset"))
			if r.URL.Query().Get("offset") == "0" {
				fmt.Fprint(w, `{"items":[{"id":"a1"}],"hasMore":true}`)
			} else {
				fmt.Fprint(w, `{"items":[{"id":"a2"}],"hasMore":false}`)
			}
			return
		}
		for key, body := range f.lists {
			if strings.Contains(q, key) {
				fmt.Fprint(w, body)
				return
			}
		}
		fmt.Fprint(w, `{"items":[],"hasMore":false}`)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, apiRoot+"/")
	if status, ok := f.fail[id]; ok {
		http.Error(w, "backend exploded", status)
		return
	}
	body, ok := f.items[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, body)
}

func newTestCMS(t *testing.T, f *fakeCMS) *CMS {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := NewCMS(CMSConfig{ServerURL: srv.URL + "/", ChannelToken: "tok", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewCMSValidatesServerURL(t *testing.T) {
	_, err := NewCMS(CMSConfig{})
	assert.Error(t, err)
	_, err = NewCMS(CMSConfig{ServerURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestCMSTopicIDsAndName(t *testing.T) {
	c := newTestCMS(t, newFakeCMS())
	ctx := context.Background()

	ids, err := c.TopicIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids)

	name, err := c.TopicName(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Travel", name)

	_, err = c.TopicName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCMSTopicArticles(t *testing.T) {
	c := newTestCMS(t, newFakeCMS())

	list, err := c.TopicArticles(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list.Articles, 2)

	a1 := list.Articles[0]
	assert.Equal(t, "a1", a1.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), a1.PublishedDate)
	require.NotNil(t, a1.Renditions)
	assert.Equal(t, "https://cdn.test/img-a1/small.jpg", a1.Renditions.Small)

	// img-a2 has no jpg variants, so its set is dropped
	assert.Nil(t, list.Articles[1].Renditions)
}

func TestCMSRenditionSourceSet(t *testing.T) {
	c := newTestCMS(t, newFakeCMS())

	r, err := c.renditions(context.Background(), "img-t1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "https://cdn.test/img-t1/thumbnail.webp 150w, https://cdn.test/img-t1/small.webp 300w, https://cdn.test/img-t1/native 1200w", r.Srcset)
	assert.Equal(t, "https://cdn.test/img-t1/thumbnail.jpg 150w, https://cdn.test/img-t1/small.jpg 300w", r.JPGSrcset)
	assert.Equal(t, "https://cdn.test/img-t1/thumbnail.jpg", r.Thumbnail)
	assert.Equal(t, "https://cdn.test/img-t1/native", r.Native)
	assert.Equal(t, 1200, r.Width)
	assert.Equal(t, 800, r.Height)
	assert.True(t, r.Complete())
}

func TestCMSAllArticlesPages(t *testing.T) {
	f := newFakeCMS()
	c := newTestCMS(t, f)

	refs, err := c.AllArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ArticleRef{{ID: "a1"}, {ID: "a2"}}, refs)
	assert.Equal(t, []string{"0", "1"}, f.pageLog)
}

func TestCMSArticleDetails(t *testing.T) {
	c := newTestCMS(t, newFakeCMS())

	d, err := c.ArticleDetails(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon in a day", d.Name)
	assert.Equal(t, "Ana", d.Title)
	assert.Equal(t, "t1", d.TopicID)
	assert.Equal(t, "Travel", d.TopicName)
	assert.Equal(t, "Tram 28", d.ImageCaption)
	assert.Equal(t, "<p>Hi</p><script>evil()</script>", d.Content)
	require.NotNil(t, d.Renditions)
	require.NotNil(t, d.AuthorRenditions)
	assert.Equal(t, "https://cdn.test/img-au1/small.jpg", d.AuthorRenditions.Small)
}

func TestCMSArticleDetailsFailsWhenAnyFetchFails(t *testing.T) {
	f := newFakeCMS()
	f.fail["img-au1"] = http.StatusInternalServerError
	c := newTestCMS(t, f)

	_, err := c.ArticleDetails(context.Background(), "a1")
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCMSHomePage(t *testing.T) {
	c := newTestCMS(t, newFakeCMS())

	h, err := c.HomePage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cafe Supremo", h.CompanyTitle)
	assert.Equal(t, "https://a.test", h.AboutURL)
	require.NotNil(t, h.CompanyThumbnail)
	require.Len(t, h.Topics, 2)
	assert.Equal(t, "Travel", h.Topics[0].Name)
	assert.NotNil(t, h.Topics[0].Renditions)
	assert.Equal(t, "Food", h.Topics[1].Name)
	assert.Nil(t, h.Topics[1].Renditions)
}

func TestCMSMissingChannelTokenIsFetchError(t *testing.T) {
	srv := httptest.NewServer(newFakeCMS())
	t.Cleanup(srv.Close)
	c, err := NewCMS(CMSConfig{ServerURL: srv.URL})
	require.NoError(t, err)

	_, err = c.TopicIDs(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusUnauthorized, fe.Status)
}
