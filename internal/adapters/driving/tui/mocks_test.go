package tui

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// MockCollectionService implements driving.CollectionService for testing.
type MockCollectionService struct {
	names []string
	err   error
}

func (m *MockCollectionService) Create(_ context.Context, name string) (*domain.Collection, error) {
	return &domain.Collection{Name: name}, nil
}

func (m *MockCollectionService) Get(_ context.Context, name string) (*domain.Collection, error) {
	return &domain.Collection{Name: name}, nil
}

func (m *MockCollectionService) Rename(context.Context, string, string) error { return nil }

func (m *MockCollectionService) Delete(context.Context, string) error { return nil }

func (m *MockCollectionService) List(context.Context) ([]string, error) {
	return m.names, m.err
}

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	answer     *domain.Answer
	err        error
	collection string
	question   string
}

func (m *MockQueryService) Query(_ context.Context, collection, question string) (*domain.Answer, error) {
	m.collection = collection
	m.question = question
	return m.answer, m.err
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	files []domain.FileGroup
	err   error
}

func (m *MockDocumentService) List(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *MockDocumentService) Files(context.Context, string) ([]domain.FileGroup, error) {
	return m.files, m.err
}

func (m *MockDocumentService) Delete(context.Context, string, []string) ([]domain.DeleteResult, error) {
	return nil, nil
}

func newTestPorts() *Ports {
	return &Ports{
		Collections: &MockCollectionService{names: []string{"essays", "notes"}},
		Query: &MockQueryService{answer: &domain.Answer{
			Question: "why?",
			Answer:   "Because of pressure.",
			Sources: []domain.Passage{{
				Chunk: domain.Chunk{ID: "c1", FileName: "a.md", Content: "Pressure builds."},
				Score: 0.9,
			}},
		}},
		Documents: &MockDocumentService{files: []domain.FileGroup{
			{FileName: "a.md", Fingerprint: "sha256:aa", ChunkIDs: []string{"c1"}},
		}},
	}
}
