package recommend

import (
	"context"

	v1 "github.com/vyrodovalexey/recommendations/api/recommendations/v1"
	"github.com/vyrodovalexey/recommendations/internal/catalog"
)

// GRPCService exposes a Service as the recommendations.Recommendations gRPC
// service. Errors are returned unchanged; a status interceptor maps them.
type GRPCService struct {
	svc *Service
}

var _ v1.RecommendationsServer = (*GRPCService)(nil)

// NewGRPCService wraps svc for registration on a gRPC server.
func NewGRPCService(svc *Service) *GRPCService {
	return &GRPCService{svc: svc}
}

// Recommend implements v1.RecommendationsServer.
func (g *GRPCService) Recommend(ctx context.Context, req *v1.RecommendationRequest) (*v1.RecommendationResponse, error) {
	resp, err := g.svc.Recommend(ctx, Request{
		UserID:     req.UserID,
		Category:   catalog.Category(req.Category),
		MaxResults: int(req.MaxResults),
	})
	if err != nil {
		return nil, err
	}

	out := &v1.RecommendationResponse{
		Recommendations: make([]v1.BookRecommendation, 0, len(resp.Items)),
	}
	for _, item := range resp.Items {
		out.Recommendations = append(out.Recommendations, v1.BookRecommendation{ID: item.ID, Title: item.Title})
	}
	return out, nil
}
