package processors

import (
	"context"
	"path/filepath"
	"strings"

	"uploader/internal/apperr"
	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/logger"
	"uploader/internal/options"
	"uploader/internal/orchestrator"
	"uploader/internal/quota"
	"uploader/internal/services/bulsaja"
	"uploader/internal/worker/processors/validation"
)

// EventProcessor runs queued uploads.
type EventProcessor struct {
	config    *config.Config
	logger    *logger.Logger
	validator *validation.Validator
	quota     quota.Tracker
	repo      *database.Repository
	publisher events.Publisher
}

func NewEventProcessor(cfg *config.Config, logger *logger.Logger, validator *validation.Validator, tracker quota.Tracker, repo *database.Repository, publisher events.Publisher) *EventProcessor {
	return &EventProcessor{
		config:    cfg,
		logger:    logger,
		validator: validator,
		quota:     tracker,
		repo:      repo,
		publisher: publisher,
	}
}

func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.TypeUploadRequested:
		return ep.upload(ctx, event)
	case events.TypeUploadCompleted:
		ep.logger.Debug("run %s completed", event.RunID)
		return nil
	default:
		ep.logger.Debug("ignoring event type %s", event.Type)
		return nil
	}
}

func (ep *EventProcessor) upload(ctx context.Context, event events.Event) error {
	var in events.UploadRequest
	if err := event.Decode(&in); err != nil {
		return err
	}

	session, err := ep.loadSession(in)
	if err != nil {
		return err
	}

	req, err := orchestrator.FromSession(session, in.Groups)
	if err != nil {
		return err
	}
	req.RunID = event.RunID
	req.DryRun = in.DryRun
	req.TestProductID = in.TestProductID

	o := orchestrator.New(func() orchestrator.VendorAPI {
		return bulsaja.NewClient(ep.config.VendorBaseURL, session.AccessToken, session.RefreshToken, ep.logger)
	}, ep.validator, ep.quota, ep.repo, ep.logger.With("run", event.RunID))

	run, sum, err := o.RunRecorded(ctx, ep.repo, in.Session, req)
	if run == nil {
		return err
	}

	done, perr := events.New(events.TypeUploadCompleted, run.ID, sum)
	if perr == nil && ep.publisher != nil {
		perr = ep.publisher.Publish(ctx, done)
	}
	if perr != nil {
		ep.logger.Error("completion event for %s not published: %v", run.ID, perr)
	}
	return err
}

// loadSession reads <SessionDir>/<session>.json and applies the request's
// overrides.
func (ep *EventProcessor) loadSession(in events.UploadRequest) (*config.Session, error) {
	name := filepath.Base(strings.TrimSpace(in.Session))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, apperr.Configf("event carries no session")
	}
	s, err := config.LoadSession(filepath.Join(ep.config.SessionDir, name+".json"))
	if err != nil {
		return nil, err
	}

	if len(in.Markets) > 0 {
		s.Markets = in.Markets
	}
	if in.UploadCount > 0 {
		s.UploadCount = in.UploadCount
	}
	if in.OptionCount > 0 {
		s.OptionCount = in.OptionCount
	}
	if in.OptionSort != "" {
		if _, err := options.ParseSortMode(in.OptionSort); err != nil {
			return nil, apperr.Wrap(apperr.Invalid, err, "option_sort")
		}
		s.OptionSort = in.OptionSort
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
