package mcp

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	names       []string
	collections map[string]*domain.Collection
	err         error
}

func (m *mockCollectionService) Create(_ context.Context, name string) (*domain.Collection, error) {
	return &domain.Collection{Name: name}, m.err
}

func (m *mockCollectionService) Get(_ context.Context, name string) (*domain.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockCollectionService) Rename(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockCollectionService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	files      []domain.FileGroup
	collection string
	err        error
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Files(_ context.Context, collection string) ([]domain.FileGroup, error) {
	m.collection = collection
	return m.files, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string, _ []string) ([]domain.DeleteResult, error) {
	return nil, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   *domain.Answer
	err      error
	question string
}

func (m *mockQueryService) Query(_ context.Context, _, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}
