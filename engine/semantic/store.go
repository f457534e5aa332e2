// Package semantic owns all Qdrant operations for the recipe collection.
package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

// Store is the sole owner of all Qdrant operations on the recipe collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the recipe collection if it doesn't exist.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert stores recipe records. Called by cmd/ingest.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: recordPayload(r),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// DeleteBySource removes all points for a source URL. Used for re-ingestion.
func (s *Store) DeleteBySource(ctx context.Context, sourceURL string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{
						fieldMatch("source_url", sourceURL),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete by source %s: %w", sourceURL, err)
	}
	return nil
}

// Search performs k-NN similarity search over recipes, returning only hits
// with score at or above threshold. An empty result is a valid, non-error
// outcome.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, threshold float32) ([]Hit, error) {
	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if threshold > 0 {
		req.ScoreThreshold = &threshold
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w: %v", domain.ErrStoreUnavailable, err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		rec := recordFromPayload(r.GetPayload())
		rec.ID = r.GetId().GetUuid()
		hits[i] = Hit{Record: rec, Score: r.GetScore()}
	}
	return hits, nil
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

// The Facts.Nutrition map is flattened to a calories entry; that is the only
// nutrition field the ingestion pipeline extracts.
func recordPayload(r Record) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		"title":        stringValue(r.Title),
		"ingredients":  listValue(r.Ingredients),
		"instructions": listValue(r.Instructions),
		"source_url":   stringValue(r.SourceURL),
	}
	if r.Facts.PrepTime != "" {
		payload["prep_time"] = stringValue(r.Facts.PrepTime)
	}
	if r.Facts.CookTime != "" {
		payload["cook_time"] = stringValue(r.Facts.CookTime)
	}
	if r.Facts.TotalTime != "" {
		payload["total_time"] = stringValue(r.Facts.TotalTime)
	}
	if r.Facts.Servings != "" {
		payload["servings"] = stringValue(r.Facts.Servings)
	}
	if cal := r.Facts.Nutrition["calories"]; cal != "" {
		payload["calories"] = stringValue(cal)
	}
	return payload
}

func recordFromPayload(payload map[string]*pb.Value) Record {
	rec := Record{
		Title:        payload["title"].GetStringValue(),
		Ingredients:  stringList(payload["ingredients"]),
		Instructions: stringList(payload["instructions"]),
		SourceURL:    payload["source_url"].GetStringValue(),
		Facts: domain.RecipeFacts{
			PrepTime:  payload["prep_time"].GetStringValue(),
			CookTime:  payload["cook_time"].GetStringValue(),
			TotalTime: payload["total_time"].GetStringValue(),
			Servings:  payload["servings"].GetStringValue(),
		},
	}
	if cal := payload["calories"].GetStringValue(); cal != "" {
		rec.Facts.Nutrition = map[string]string{"calories": cal}
	}
	return rec
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func listValue(items []string) *pb.Value {
	vals := make([]*pb.Value, len(items))
	for i, it := range items {
		vals[i] = stringValue(it)
	}
	return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
}

func stringList(v *pb.Value) []string {
	list := v.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
