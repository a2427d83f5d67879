package workflow

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/pipeline"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/publisher"
	"github.com/shouni/go-ehon-kit/pkg/runner"
)

type mockStory struct {
	runFunc func(story prompts.Story, childName string) (domain.StoryResponse, error)
}

func (m *mockStory) Run(_ context.Context, story prompts.Story, childName string) (domain.StoryResponse, error) {
	return m.runFunc(story, childName)
}

type mockIllustrator struct {
	books   []pipeline.Book
	pages   []pipeline.Page
	runFunc func(book pipeline.Book) ([]domain.PageResult, error)
}

func (m *mockIllustrator) Run(_ context.Context, book pipeline.Book) ([]domain.PageResult, error) {
	m.books = append(m.books, book)
	return m.runFunc(book)
}

func (m *mockIllustrator) RunPage(_ context.Context, page pipeline.Page) (domain.PageResult, error) {
	m.pages = append(m.pages, page)
	return domain.PageResult{Index: page.Spec.Index, Provider: page.Primary}, nil
}

type mockPublisher struct {
	books       []publisher.Book
	publishFunc func(book publisher.Book) (publisher.PublishResult, error)
}

func (m *mockPublisher) Publish(_ context.Context, book publisher.Book) (publisher.PublishResult, error) {
	m.books = append(m.books, book)
	return m.publishFunc(book)
}

type mockHTTPClient struct{}

func (m *mockHTTPClient) DoRequest(_ *http.Request) ([]byte, error) {
	return nil, io.EOF
}

type mockTextSource struct{}

func (m *mockTextSource) Get(context.Context) (runner.TextModel, error) {
	return &mockTextModel{}, nil
}

type mockTextModel struct{}

func (m *mockTextModel) GenerateContent(context.Context, string, string) (*gemini.Response, error) {
	return &gemini.Response{Text: "{}"}, nil
}

type mockFetcher struct {
	urls      []string
	fetchFunc func(url string) ([]byte, error)
}

func (m *mockFetcher) FetchBytes(_ context.Context, url string) ([]byte, error) {
	m.urls = append(m.urls, url)
	return m.fetchFunc(url)
}

type mockOpener struct {
	files map[string]string
}

func (m *mockOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s, ok := m.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

func tenPages() domain.StoryResponse {
	var resp domain.StoryResponse
	for i := 1; i <= domain.PageCount; i++ {
		resp.Pages = append(resp.Pages, domain.PageSpec{Index: i, Text: "むかしむかし ABC", ImageDescription: "森の小道"})
	}
	return resp
}
