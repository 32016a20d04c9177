package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/log"
)

// ObjectiveService owns savings objectives and their progress value.
type ObjectiveService struct {
	repo   ObjectiveRepository
	images ImageStore
}

// NewObjectiveService builds the service. images may be nil; objectives are
// then created without an image even when one is provided.
func NewObjectiveService(repo ObjectiveRepository, images ImageStore) *ObjectiveService {
	return &ObjectiveService{repo: repo, images: images}
}

// ObjectiveInput carries the fields of a new objective. ImageName and
// ImageData are optional; when set, the image is uploaded to blob storage
// and stored as a resolvable URL.
type ObjectiveInput struct {
	AccountID      string
	Description    string
	SavingsPercent decimal.Decimal
	TargetAmount   decimal.Decimal
	CurrentAmount  decimal.Decimal
	StartDate      time.Time
	EndDate        *time.Time
	ImageName      string
	ImageData      []byte
}

func (s *ObjectiveService) Create(ctx context.Context, in ObjectiveInput) (core.Objective, error) {
	if strings.TrimSpace(in.AccountID) == "" {
		return core.Objective{}, core.ErrEmptyAccountID
	}
	if in.StartDate.IsZero() {
		return core.Objective{}, core.ErrMissingStartDate
	}
	if !in.TargetAmount.IsPositive() {
		return core.Objective{}, core.ErrInvalidAmount
	}
	if in.SavingsPercent.IsNegative() {
		return core.Objective{}, core.ErrInvalidAmount
	}

	imageURL, err := s.uploadImage(ctx, in)
	if err != nil {
		return core.Objective{}, err
	}

	objective, err := s.repo.CreateObjective(ctx, core.Objective{
		AccountID:      in.AccountID,
		Description:    in.Description,
		SavingsPercent: in.SavingsPercent,
		TargetAmount:   in.TargetAmount,
		CurrentAmount:  in.CurrentAmount,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		ImageURL:       imageURL,
	})
	if err != nil {
		return core.Objective{}, fmt.Errorf("create objective: %w", err)
	}

	slog.InfoContext(ctx, "Objective created",
		log.FieldComponent, log.ComponentObjective,
		log.FieldObjective, objective.ID,
		log.FieldAccountID, objective.AccountID,
		"target", objective.TargetAmount.String())

	return objective, nil
}

// ListByAccount returns an account's objectives, newest first.
func (s *ObjectiveService) ListByAccount(ctx context.Context, accountID string) ([]core.Objective, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, core.ErrEmptyAccountID
	}
	return s.repo.ListObjectivesByAccount(ctx, accountID)
}

// UpdateProgress overwrites the objective's current amount with the given
// value; progress updates are absolute, not additive.
func (s *ObjectiveService) UpdateProgress(ctx context.Context, objectiveID string, current decimal.Decimal) (core.Objective, error) {
	objective, err := s.repo.UpdateObjectiveProgress(ctx, objectiveID, current)
	if err != nil {
		return core.Objective{}, fmt.Errorf("update objective progress: %w", err)
	}

	slog.InfoContext(ctx, "Objective progress updated",
		log.FieldComponent, log.ComponentObjective,
		log.FieldObjective, objective.ID,
		"current", objective.CurrentAmount.String())

	return objective, nil
}

// Delete removes the objective. The uploaded image, if any, is left in blob
// storage; objects are cheap and the URL simply goes unreferenced.
func (s *ObjectiveService) Delete(ctx context.Context, objectiveID string) error {
	if err := s.repo.DeleteObjective(ctx, objectiveID); err != nil {
		return fmt.Errorf("delete objective: %w", err)
	}

	slog.InfoContext(ctx, "Objective deleted",
		log.FieldComponent, log.ComponentObjective,
		log.FieldObjective, objectiveID)

	return nil
}

func (s *ObjectiveService) uploadImage(ctx context.Context, in ObjectiveInput) (string, error) {
	if len(in.ImageData) == 0 {
		return "", nil
	}
	if s.images == nil {
		slog.WarnContext(ctx, "Image store not available, creating objective without image",
			log.FieldComponent, log.ComponentObjective,
			log.FieldAccountID, in.AccountID)
		return "", nil
	}

	url, err := s.images.Upload(ctx, in.ImageName, in.ImageData)
	if err != nil {
		return "", fmt.Errorf("upload objective image: %w", err)
	}
	return url, nil
}
