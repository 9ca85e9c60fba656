package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airwaves/internal/catalog"
	"airwaves/internal/logging"
	"airwaves/internal/services"
)

// ShowStore is the persistence the pipeline reads and advances.
type ShowStore interface {
	GetByID(ctx context.Context, id string) (*catalog.Show, error)
	MarkDownloaded(ctx context.Context, id string, d catalog.Downloaded) error
	MarkConverted(ctx context.Context, id string, c catalog.Converted) error
}

// StageSummary is the reporting view of a stage result.
type StageSummary struct {
	RelativePath string `json:"relativePath"`
	Format       string `json:"format"`
	Skipped      bool   `json:"skipped"`
}

// ProcessResult reports one ProcessShow run. The stored show is authoritative.
type ProcessResult struct {
	Show       *catalog.Show `json:"show"`
	Download   StageSummary  `json:"download"`
	Conversion StageSummary  `json:"conversion"`
}

// Pipeline sequences download, transcode and the state updates between them.
type Pipeline struct {
	store      ShowStore
	downloader *Downloader
	transcoder *Transcoder
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline wires the two stages to the store.
func NewPipeline(store ShowStore, downloader *Downloader, transcoder *Transcoder, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		downloader: downloader,
		transcoder: transcoder,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		now:        time.Now,
	}
}

// ProcessShow downloads and transcodes one show, advancing its processing
// state after each stage.
func (p *Pipeline) ProcessShow(ctx context.Context, showID string) (*ProcessResult, error) {
	ctx = services.WithShowID(ctx, showID)
	logger := logging.WithContext(ctx, p.logger)

	show, err := p.store.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, services.Public(services.ErrNotFound, fmt.Sprintf("Show %s not found", showID))
	}
	if show.ArchiveURL == "" {
		return nil, services.Public(services.ErrInvalidState, "Show does not have an archive URL")
	}
	logger.Info("processing show", logging.String("archive_url", show.ArchiveURL))

	download, err := p.downloader.Download(ctx, show.ID, show.ArchiveURL)
	if err != nil {
		return nil, err
	}
	if !download.Skipped {
		if err := p.store.MarkDownloaded(ctx, show.ID, catalog.Downloaded{
			RawAudioPath:   download.RelativePath,
			RawAudioFormat: download.Format,
			At:             p.now(),
		}); err != nil {
			return nil, err
		}
	}

	conversion, err := p.transcoder.Transcode(ctx, show.ID, download.AbsolutePath)
	if err != nil {
		return nil, err
	}
	convertedAt := p.now()
	if conversion.Skipped && show.ConvertedAt != nil {
		convertedAt = *show.ConvertedAt
	}
	if err := p.store.MarkConverted(ctx, show.ID, catalog.Converted{
		AudioPath:   conversion.RelativePath,
		AudioFormat: conversion.Format,
		At:          convertedAt,
	}); err != nil {
		return nil, err
	}

	updated, err := p.store.GetByID(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("show processed",
		logging.Bool("download_skipped", download.Skipped),
		logging.Bool("transcode_skipped", conversion.Skipped),
		logging.String("path", conversion.RelativePath),
	)
	return &ProcessResult{
		Show:       updated,
		Download:   summarize(download),
		Conversion: summarize(conversion),
	}, nil
}

func summarize(r StageResult) StageSummary {
	return StageSummary{RelativePath: r.RelativePath, Format: r.Format, Skipped: r.Skipped}
}
