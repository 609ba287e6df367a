package registry

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/uploads"
	"github.com/aristath/crapto/internal/utils"
)

// Image is an uploaded image file
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Submission is the create-token form
type Submission struct {
	Name    string
	Ticker  string
	Creator string
	Image   *Image // optional
}

// EventEmitter publishes registry events
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
	EmitError(module string, err error, context map[string]interface{})
}

// Service registers submitted tokens
type Service struct {
	store  Store
	images uploads.ImageStore
	events EventEmitter
	newTx  func() string
	log    zerolog.Logger
}

// NewService creates a registry service. images may be nil when uploads are disabled.
func NewService(store Store, images uploads.ImageStore, eventEmitter EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		images: images,
		events: eventEmitter,
		newTx:  MockTxID,
		log:    log.With().Str("module", "registry").Logger(),
	}
}

// MockTxID returns a fake transaction id such as "mock-k3j9x0a1b2c"
func MockTxID() string {
	return "mock-" + utils.RandomBase36(11)
}

// Register stores the image, if any, and appends the record. Failures are published as error events.
func (s *Service) Register(ctx context.Context, sub Submission) (TokenRecord, error) {
	record, err := s.register(ctx, sub)
	if err != nil && s.events != nil {
		s.events.EmitError("registry", err, map[string]interface{}{
			"ticker":    sub.Ticker,
			"has_image": sub.Image != nil,
		})
	}
	return record, err
}

func (s *Service) register(ctx context.Context, sub Submission) (TokenRecord, error) {
	imageURL := ""
	if sub.Image != nil {
		if s.images == nil {
			return TokenRecord{}, fmt.Errorf("image uploads are not configured")
		}
		url, err := s.images.Save(ctx, sub.Image.Filename, sub.Image.ContentType, sub.Image.Body)
		if err != nil {
			return TokenRecord{}, fmt.Errorf("failed to store image: %w", err)
		}
		imageURL = url
	}

	record, err := s.store.Append(ctx, TokenRecord{
		Name:     sub.Name,
		Ticker:   sub.Ticker,
		ImageURL: imageURL,
		Creator:  sub.Creator,
		TxID:     s.newTx(),
	})
	if err != nil {
		return TokenRecord{}, fmt.Errorf("failed to register token: %w", err)
	}

	s.log.Info().
		Int64("token_id", record.ID).
		Str("ticker", record.Ticker).
		Str("tx_id", record.TxID).
		Bool("has_image", imageURL != "").
		Msg("Token registered")

	if s.events != nil {
		s.events.EmitTyped("registry", &events.TokenRegisteredData{
			TokenID: record.ID,
			Ticker:  record.Ticker,
			TxID:    record.TxID,
		})
	}
	return record, nil
}

// List returns every registered token
func (s *Service) List(ctx context.Context) ([]TokenRecord, error) {
	return s.store.List(ctx)
}

// Count returns the number of registered tokens
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
