package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"volscribe/internal/artifacts"
	"volscribe/internal/fileutil"
	"volscribe/internal/logging"
	"volscribe/internal/runlog"
	"volscribe/internal/services"
	"volscribe/internal/transcript"
)

// integrate assembles every per-volume transcript into the archive, writes
// it next to the collection directory and optionally uploads it.
func (r *run) integrate(ctx context.Context) error {
	ctx = services.WithStage(ctx, StageIntegrate)
	logger := logging.WithContext(ctx, r.o.logger)

	archive := transcript.NewArchive(r.o.now())
	var missing []int
	for _, v := range r.volumes {
		vt, err := r.loadVolume(v)
		if err != nil {
			vctx := services.WithVolume(ctx, v.Number)
			if !errors.Is(err, fs.ErrNotExist) {
				logging.WarnWithContext(logging.WithContext(vctx, r.o.logger), "volume transcript unusable", "volume_transcript_invalid",
					logging.Error(err),
					logging.String(logging.FieldImpact, "volume left out of archive; the next run transcribes it again"),
					logging.String(logging.FieldErrorHint, "the damaged file was moved aside"),
				)
				r.quarantine(v)
				r.o.ledgerOutcome(vctx, r.id, v.Number, StageIntegrate, runlog.OutcomeFailed, "", err)
			}
			missing = append(missing, v.Number)
			continue
		}
		if err := archive.Append(vt); err != nil {
			return services.Wrap(services.ErrValidation, "pipeline", "integrate", fmt.Sprintf("collection %s %s", r.collection, v), err)
		}
		r.tracker.set(v.Number, StateIntegrated)
	}

	if len(missing) > 0 {
		r.summary.Gap = &IntegrationGap{CollectionID: r.collection, Volumes: missing}
		logging.WarnWithContext(logger, "integration gap", "integration_gap",
			logging.Any("missing", missing),
			logging.Int("integrated", len(archive.Transcripts)),
			logging.String(logging.FieldImpact, "archive is incomplete"),
			logging.String(logging.FieldErrorHint, "rerun transcribe once the missing volumes are available"),
		)
	}
	if len(archive.Transcripts) == 0 {
		logging.WarnWithContext(logger, "no volumes to integrate", "archive_skipped",
			logging.String(logging.FieldImpact, "no archive written"),
			logging.String(logging.FieldErrorHint, "check earlier volume failures"),
		)
		return nil
	}

	data, err := archive.Marshal()
	if err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "integrate", fmt.Sprintf("collection %s: archive failed contract validation", r.collection), err)
	}
	path := r.o.ArchivePath(r.collection)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "integrate", fmt.Sprintf("collection %s: write archive %s", r.collection, path), err)
	}
	r.summary.ArchivePath = path
	logger.Info("archive written",
		logging.String(logging.FieldEventType, "archive_written"),
		logging.String("path", path),
		logging.Int("volumes", len(archive.Transcripts)),
	)

	if !r.ro.Upload {
		return nil
	}
	if r.o.deps.Archive == nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "upload", "no archive store configured", nil)
	}
	if r.summary.Gap != nil && !r.ro.AllowPartialUpload {
		logging.WarnWithContext(logger, "upload skipped for incomplete archive", "archive_upload_skipped",
			logging.String(logging.FieldImpact, "archive store not updated"),
			logging.String(logging.FieldErrorHint, "pass --allow-partial to upload anyway"),
		)
		return nil
	}
	if err := r.o.deps.Archive.Put(ctx, r.collection, data); err != nil {
		return err
	}
	r.summary.Uploaded = true
	return nil
}

// loadVolume reads the per-volume artifact and re-assembles its segments.
func (r *run) loadVolume(v artifacts.Volume) (transcript.VolumeTranscript, error) {
	var stored transcript.VolumeTranscript
	if err := fileutil.ReadJSON(artifacts.TranscriptPath(r.dir, v), &stored); err != nil {
		return transcript.VolumeTranscript{}, err
	}
	if stored.Volume != v.Number {
		return transcript.VolumeTranscript{}, errors.New("volume number does not match file name")
	}
	assembly, err := transcript.Assemble(stored.Segments, r.o.opts.Assembly)
	if err != nil {
		return transcript.VolumeTranscript{}, err
	}
	if len(assembly.Segments) == 0 {
		return transcript.VolumeTranscript{}, errors.New("transcript has no segments")
	}
	return transcript.VolumeTranscript{
		Volume:     v.Number,
		Timestamp:  stored.Timestamp,
		SourceURLs: stored.SourceURLs,
		Segments:   assembly.Segments,
		Text:       assembly.Text,
	}, nil
}

// quarantine hides a damaged transcript so the next pass redoes the volume.
func (r *run) quarantine(v artifacts.Volume) {
	src := artifacts.TranscriptPath(r.dir, v)
	dst := filepath.Join(r.dir, "."+filepath.Base(src)+".invalid")
	_ = os.Rename(src, dst)
}
