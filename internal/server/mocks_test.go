package server

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/workflow"
)

type mockWorkflow struct {
	bookReqs []domain.BookRequest
	pageReqs []domain.PageRequest

	bookFunc func(req domain.BookRequest) (workflow.BookResult, error)
	pageFunc func(req domain.PageRequest) (domain.PageResult, error)
}

func (m *mockWorkflow) Story(context.Context, domain.BookRequest) (prompts.Story, domain.StoryResponse, error) {
	return prompts.Story{}, domain.StoryResponse{}, nil
}

func (m *mockWorkflow) GenerateBook(_ context.Context, req domain.BookRequest) (workflow.BookResult, error) {
	m.bookReqs = append(m.bookReqs, req)
	return m.bookFunc(req)
}

func (m *mockWorkflow) Illustrate(context.Context, domain.BookRequest, prompts.Story, domain.StoryResponse) (workflow.BookResult, error) {
	return workflow.BookResult{}, nil
}

func (m *mockWorkflow) GeneratePage(_ context.Context, req domain.PageRequest) (domain.PageResult, error) {
	m.pageReqs = append(m.pageReqs, req)
	return m.pageFunc(req)
}

type mockHeroLoader struct {
	locations []string
	loadFunc  func(location string) (*domain.ReferenceImage, error)
}

func (m *mockHeroLoader) Load(_ context.Context, location string) (*domain.ReferenceImage, error) {
	m.locations = append(m.locations, location)
	return m.loadFunc(location)
}
