// Package search mirrors discovery records into a Meilisearch index so that
// browse queries can filter and sort without touching the primary store.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/kimbucha/roomiesBolt-sub000/internal/metrics"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

const (
	queueSize     = 256
	batchSize     = 50
	flushInterval = time.Second
)

// Document is the indexed shape of a discovery record.
type Document struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	University      string   `json:"university,omitempty"`
	Location        string   `json:"location"`
	Budget          string   `json:"budget"`
	RoomType        string   `json:"roomType"`
	HasPlace        bool     `json:"hasPlace"`
	UserRole        string   `json:"userRole,omitempty"`
	Verified        bool     `json:"verified"`
	IsPremium       bool     `json:"isPremium"`
	PersonalityType string   `json:"personalityType,omitempty"`
	Cleanliness     string   `json:"cleanliness,omitempty"`
	NoiseLevel      string   `json:"noiseLevel,omitempty"`
	SleepSchedule   string   `json:"sleepSchedule"`
	PetPreference   string   `json:"petPreference"`
	Amenities       []string `json:"amenities,omitempty"`
	Image           string   `json:"image"`
	UpdatedAt       int64    `json:"updatedAt"`
}

// NewDocument projects rec onto the indexed fields.
func NewDocument(rec models.DiscoveryRecord) Document {
	return Document{
		ID:              rec.ID,
		Name:            rec.Name,
		Age:             rec.Age,
		University:      rec.University,
		Location:        rec.Location,
		Budget:          rec.Budget,
		RoomType:        rec.RoomType,
		HasPlace:        rec.HasPlace,
		UserRole:        string(rec.UserRole),
		Verified:        rec.Verified,
		IsPremium:       rec.IsPremium,
		PersonalityType: rec.PersonalityType,
		Cleanliness:     rec.Lifestyle.Cleanliness,
		NoiseLevel:      rec.Lifestyle.NoiseLevel,
		SleepSchedule:   rec.Lifestyle.SleepSchedule,
		PetPreference:   rec.PersonalPreferences.PetPreference,
		Amenities:       rec.Amenities,
		Image:           rec.Image,
		UpdatedAt:       rec.UpdatedAt,
	}
}

// DocumentIndex is the part of a Meilisearch index the Indexer writes to.
type DocumentIndex interface {
	AddDocuments(documentsPtr interface{}, primaryKey ...string) (*meilisearch.TaskInfo, error)
}

// Indexer queues discovery changes and writes them to the index in batches.
// DiscoveryChanged never blocks; when the queue is full the change is
// dropped and counted, and the next change to that record repairs it.
type Indexer struct {
	index   DocumentIndex
	metrics *metrics.Metrics
	queue   chan Document
}

// NewIndexer creates an Indexer writing to index.
func NewIndexer(index DocumentIndex, m *metrics.Metrics) *Indexer {
	return &Indexer{
		index:   index,
		metrics: m,
		queue:   make(chan Document, queueSize),
	}
}

// Connect opens the Meilisearch index uid on host, creating it and its
// attribute settings when needed.
func Connect(host, apiKey, uid string) (*meilisearch.Index, error) {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	_, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        uid,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	index := client.Index(uid)
	if _, err := index.UpdateSearchableAttributes(&[]string{
		"name",
		"university",
		"location",
		"personalityType",
	}); err != nil {
		return nil, fmt.Errorf("failed to configure searchable attributes: %w", err)
	}
	if _, err := index.UpdateFilterableAttributes(&[]string{
		"age",
		"location",
		"roomType",
		"hasPlace",
		"userRole",
		"verified",
		"cleanliness",
		"noiseLevel",
		"sleepSchedule",
		"petPreference",
		"amenities",
	}); err != nil {
		return nil, fmt.Errorf("failed to configure filterable attributes: %w", err)
	}
	if _, err := index.UpdateSortableAttributes(&[]string{
		"age",
		"updatedAt",
	}); err != nil {
		return nil, fmt.Errorf("failed to configure sortable attributes: %w", err)
	}
	return index, nil
}

// DiscoveryChanged queues rec for indexing.
func (ix *Indexer) DiscoveryChanged(_ context.Context, rec models.DiscoveryRecord) {
	select {
	case ix.queue <- NewDocument(rec):
	default:
		ix.metrics.IncSearchIndexError()
		slog.Warn("Search index queue full, dropping update", "user_id", rec.ID)
	}
}

// Reindex writes recs to the index synchronously.
func (ix *Indexer) Reindex(recs []models.DiscoveryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, NewDocument(rec))
	}
	return ix.write(docs)
}

// Run drains the queue until ctx is done, then flushes what is left.
func (ix *Indexer) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	pending := make(map[string]Document)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		docs := make([]Document, 0, len(pending))
		for _, d := range pending {
			docs = append(docs, d)
		}
		clear(pending)
		if err := ix.write(docs); err != nil {
			ix.metrics.IncSearchIndexError()
			slog.Error("Failed to index discovery profiles", "count", len(docs), "error", err)
		}
	}

	for {
		select {
		case doc := <-ix.queue:
			// Later changes to the same record replace earlier ones.
			pending[doc.ID] = doc
			if len(pending) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case doc := <-ix.queue:
					pending[doc.ID] = doc
				default:
					flush()
					return nil
				}
			}
		}
	}
}

func (ix *Indexer) write(docs []Document) error {
	if _, err := ix.index.AddDocuments(&docs, "id"); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	slog.Debug("Indexed discovery profiles", "count", len(docs))
	return nil
}
