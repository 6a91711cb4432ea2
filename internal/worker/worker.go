package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/montagy/voxify/internal/db"
	"github.com/montagy/voxify/internal/models"
	"github.com/montagy/voxify/internal/queue"
	"github.com/montagy/voxify/internal/services"
	"github.com/montagy/voxify/internal/storage"
	"golang.org/x/sync/errgroup"
)

type Worker struct {
	db      *db.DB
	queue   *queue.Queue
	storage *storage.Storage

	cloneEngine services.TTSEngine // synthesizes with a reference voice (F5-TTS, Coqui, or remote GPU)
	stockEngine services.TTSEngine // synthesizes with prebuilt voice names (Gemini)

	whisper *services.TranscriptionService
	encoder *services.EncoderService
}

func New(
	database *db.DB,
	q *queue.Queue,
	stor *storage.Storage,
	cloneEngine services.TTSEngine,
	stockEngine services.TTSEngine,
	whisperSvc *services.TranscriptionService,
	encoderSvc *services.EncoderService,
) *Worker {
	return &Worker{
		db:          database,
		queue:       q,
		storage:     stor,
		cloneEngine: cloneEngine,
		stockEngine: stockEngine,
		whisper:     whisperSvc,
		encoder:     encoderSvc,
	}
}

// Start begins processing jobs from all queues
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx, queue.QueueSynthesize, w.handleSynthesize)
		go w.processQueue(ctx, queue.QueueCloneVoice, w.handleCloneVoice)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context, queueName string, handler func(context.Context, *queue.Job) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queueName, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing from %s: %v", queueName, err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing queue job %s (type: %s)", job.ID, job.Type)

			if err := handler(ctx, job); err != nil {
				log.Printf("Queue job %s failed: %v", job.ID, err)
			} else {
				log.Printf("Queue job %s completed successfully", job.ID)
			}
		}
	}
}

// handleSynthesize runs a text-to-speech job end to end: route to an
// engine, synthesize, persist the output, and record a cache entry so the
// next identical request can skip synthesis entirely.
func (w *Worker) handleSynthesize(ctx context.Context, qj *queue.Job) error {
	if qj.JobID == nil {
		return fmt.Errorf("synthesize job missing job_id")
	}

	job, err := w.db.FindJob(ctx, qj.JobID.String())
	if err != nil {
		return fmt.Errorf("failed to load synthesis job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("synthesis job %s not found", qj.JobID)
	}

	// Jobs completed from cache or cancelled before pickup are skipped
	if job.Status != models.JobStatusPending {
		log.Printf("[Synthesize] Job %s is %s, skipping", job.ID, job.Status)
		return nil
	}

	if err := w.db.UpdateJobStatus(ctx, job.ID, models.JobStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	result, err := w.synthesize(ctx, job)
	if err != nil {
		w.db.UpdateJobError(ctx, job.ID, err.Error())
		return fmt.Errorf("synthesis failed: %w", err)
	}

	outputPath := w.storage.OutputPath(job.ID, result.Format)
	if err := w.storage.Save(outputPath, result.AudioData); err != nil {
		w.db.UpdateJobError(ctx, job.ID, "failed to store output audio")
		return fmt.Errorf("failed to store output: %w", err)
	}

	if err := w.db.UpdateJobOutput(ctx, job.ID, outputPath, result.DurationMs); err != nil {
		return fmt.Errorf("failed to record job output: %w", err)
	}

	// The cache keeps its own copy of the audio: deleting the job (and its
	// direct output) must not evict cached results other jobs reference.
	cacheID := uuid.New().String()
	cachePath := w.storage.CachePath(cacheID, result.Format)
	if err := w.storage.Save(cachePath, result.AudioData); err != nil {
		log.Printf("[Synthesize] Failed to store cache copy for job %s: %v", job.ID, err)
		return nil
	}

	entry := &models.CacheEntry{
		ID:           cacheID,
		TextHash:     job.TextHash,
		VoiceModelID: job.VoiceModelID,
		OutputPath:   cachePath,
		DurationMs:   &result.DurationMs,
	}
	if err := w.db.CreateCacheEntry(ctx, entry); err != nil {
		log.Printf("[Synthesize] Failed to record cache entry for job %s: %v", job.ID, err)
		w.storage.Remove(cachePath)
	}

	return nil
}

// synthesize routes the job to the right engine. A voice_model_id that
// parses as a UUID refers to a voice clone and carries reference audio;
// anything else is treated as a stock voice name.
func (w *Worker) synthesize(ctx context.Context, job *models.SynthesisJob) (*services.SynthesisResult, error) {
	req := services.SynthesisRequest{
		Text:         job.TextContent,
		Voice:        job.VoiceModelID,
		Speed:        job.Speed,
		Pitch:        job.Pitch,
		Volume:       job.Volume,
		OutputFormat: job.OutputFormat,
		SampleRate:   job.SampleRate,
	}

	cloneID, err := uuid.Parse(job.VoiceModelID)
	if err != nil {
		if w.stockEngine == nil {
			return nil, fmt.Errorf("no stock voice engine configured")
		}
		return w.stockEngine.Synthesize(ctx, req)
	}

	if w.cloneEngine == nil {
		return nil, fmt.Errorf("no clone voice engine configured")
	}

	clone, err := w.db.GetVoiceClone(ctx, cloneID)
	if err != nil {
		return nil, fmt.Errorf("voice clone %s not found", cloneID)
	}
	if clone.Status != models.CloneStatusReady {
		return nil, fmt.Errorf("voice clone %s is not ready (status: %s)", cloneID, clone.Status)
	}

	sample, err := w.db.GetVoiceSample(ctx, clone.RefSampleID)
	if err != nil {
		return nil, fmt.Errorf("reference sample for clone %s not found", cloneID)
	}

	refAudio, err := w.storage.Read(sample.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference audio: %w", err)
	}

	req.RefAudio = refAudio
	if clone.RefText != nil {
		req.RefText = *clone.RefText
	}

	return w.cloneEngine.Synthesize(ctx, req)
}

// handleCloneVoice builds a voice clone from its reference sample. The
// transcript (needed as conditioning text by the synthesis engine) and the
// speaker embedding (needed for similarity search) are computed in
// parallel; the clone only becomes ready when both succeed.
func (w *Worker) handleCloneVoice(ctx context.Context, qj *queue.Job) error {
	if qj.CloneID == nil {
		return fmt.Errorf("clone_voice job missing clone_id")
	}

	clone, err := w.db.GetVoiceClone(ctx, *qj.CloneID)
	if err != nil {
		return fmt.Errorf("failed to load voice clone: %w", err)
	}

	sample, err := w.db.GetVoiceSample(ctx, clone.RefSampleID)
	if err != nil {
		w.db.UpdateCloneError(ctx, clone.ID, "reference sample not found")
		return fmt.Errorf("failed to load reference sample: %w", err)
	}

	if err := w.db.UpdateSampleStatus(ctx, sample.ID, models.SampleStatusProcessing); err != nil {
		log.Printf("[CloneVoice] Failed to mark sample processing: %v", err)
	}

	audio, err := w.storage.Read(sample.FilePath)
	if err != nil {
		w.db.UpdateSampleError(ctx, sample.ID, "sample audio missing from storage")
		w.db.UpdateCloneError(ctx, clone.ID, "sample audio missing from storage")
		return fmt.Errorf("failed to read sample audio: %w", err)
	}

	language := ""
	if clone.Language != nil {
		language = *clone.Language
	}

	var (
		transcript string
		embedding  []float32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := w.whisper.Transcribe(gctx, audio, fmt.Sprintf("%s.%s", sample.ID, sample.Format), language)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		transcript = text
		return nil
	})
	g.Go(func() error {
		emb, err := w.encoder.Embed(gctx, audio)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
		embedding = emb
		return nil
	})

	if err := g.Wait(); err != nil {
		w.db.UpdateSampleError(ctx, sample.ID, err.Error())
		w.db.UpdateCloneError(ctx, clone.ID, err.Error())
		return err
	}

	if err := w.db.UpdateSampleTranscript(ctx, sample.ID, transcript); err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}
	if err := w.db.UpsertVoiceEmbedding(ctx, clone.ID, embedding); err != nil {
		w.db.UpdateCloneError(ctx, clone.ID, "failed to store voice embedding")
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	if err := w.db.UpdateCloneReady(ctx, clone.ID, transcript); err != nil {
		return fmt.Errorf("failed to mark clone ready: %w", err)
	}

	log.Printf("[CloneVoice] Clone %s ready (transcript: %d chars)", clone.ID, len(transcript))
	return nil
}
