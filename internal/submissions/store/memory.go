package store

import (
	"context"
	"sync"

	"casefile/internal/submissions/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// InMemory implements the submission store with a mutex-guarded map.
type InMemory struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*models.SuspectSubmission
	order       []id.SubmissionID
}

func NewInMemory() *InMemory {
	return &InMemory{submissions: make(map[id.SubmissionID]*models.SuspectSubmission)}
}

func (s *InMemory) Create(ctx context.Context, submission *models.SuspectSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submission.ID]; ok {
		return sentinel.ErrConflict
	}
	s.submissions[submission.ID] = cloneSubmission(submission)
	s.order = append(s.order, submission.ID)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.SuspectSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSubmission(submission), nil
}

func (s *InMemory) Execute(ctx context.Context, submissionID id.SubmissionID, validate func(*models.SuspectSubmission) error, mutate func(*models.SuspectSubmission)) (*models.SuspectSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.submissions[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(submission); err != nil {
		return nil, err
	}
	mutate(submission)
	return cloneSubmission(submission), nil
}

func (s *InMemory) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.SuspectSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SuspectSubmission
	for _, submissionID := range s.order {
		if submission := s.submissions[submissionID]; submission.CaseID == caseID {
			out = append(out, cloneSubmission(submission))
		}
	}
	return out, nil
}

func cloneSubmission(submission *models.SuspectSubmission) *models.SuspectSubmission {
	cp := *submission
	cp.SuspectIDs = append([]id.SuspectID(nil), submission.SuspectIDs...)
	if submission.ReviewedBy != nil {
		v := *submission.ReviewedBy
		cp.ReviewedBy = &v
	}
	return &cp
}
