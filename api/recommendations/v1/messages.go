package v1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// BookCategory mirrors the BookCategory enum. Values outside the declared
// set are preserved, as proto3 enums are open.
type BookCategory int32

// BookCategory values.
const (
	BookCategoryMystery        BookCategory = 0
	BookCategoryScienceFiction BookCategory = 1
	BookCategorySelfHelp       BookCategory = 2
)

// String returns the enum value name, or the number if undeclared.
func (c BookCategory) String() string {
	if v := categoryDesc.Values().ByNumber(protoreflect.EnumNumber(c)); v != nil {
		return string(v.Name())
	}
	return fmt.Sprintf("%d", int32(c))
}

// RecommendationRequest is the Go form of recommendations.RecommendationRequest.
type RecommendationRequest struct {
	UserID     int32
	Category   BookCategory
	MaxResults int32
}

// BookRecommendation is the Go form of recommendations.BookRecommendation.
type BookRecommendation struct {
	ID    int32
	Title string
}

// RecommendationResponse is the Go form of recommendations.RecommendationResponse.
type RecommendationResponse struct {
	Recommendations []BookRecommendation
}

// NewRequestMessage returns an empty dynamic RecommendationRequest.
func NewRequestMessage() *dynamicpb.Message {
	return dynamicpb.NewMessage(requestDesc)
}

// NewResponseMessage returns an empty dynamic RecommendationResponse.
func NewResponseMessage() *dynamicpb.Message {
	return dynamicpb.NewMessage(responseDesc)
}

// ToMessage converts r into its wire message.
func (r *RecommendationRequest) ToMessage() *dynamicpb.Message {
	m := NewRequestMessage()
	fields := requestDesc.Fields()
	m.Set(fields.ByNumber(fieldUserID), protoreflect.ValueOfInt32(r.UserID))
	m.Set(fields.ByNumber(fieldCategory), protoreflect.ValueOfEnum(protoreflect.EnumNumber(r.Category)))
	m.Set(fields.ByNumber(fieldMaxResults), protoreflect.ValueOfInt32(r.MaxResults))
	return m
}

// RequestFromMessage converts a wire RecommendationRequest.
func RequestFromMessage(m protoreflect.Message) (*RecommendationRequest, error) {
	if m.Descriptor().FullName() != requestDesc.FullName() {
		return nil, fmt.Errorf("unexpected message %s, want %s", m.Descriptor().FullName(), requestDesc.FullName())
	}

	fields := requestDesc.Fields()
	return &RecommendationRequest{
		UserID:     int32(m.Get(fields.ByNumber(fieldUserID)).Int()),
		Category:   BookCategory(m.Get(fields.ByNumber(fieldCategory)).Enum()),
		MaxResults: int32(m.Get(fields.ByNumber(fieldMaxResults)).Int()),
	}, nil
}

// ToMessage converts r into its wire message.
func (r *RecommendationResponse) ToMessage() *dynamicpb.Message {
	m := NewResponseMessage()
	list := m.Mutable(responseDesc.Fields().ByNumber(fieldRecommendations)).List()

	itemFields := itemDesc.Fields()
	for _, rec := range r.Recommendations {
		item := dynamicpb.NewMessage(itemDesc)
		item.Set(itemFields.ByNumber(fieldItemID), protoreflect.ValueOfInt32(rec.ID))
		item.Set(itemFields.ByNumber(fieldItemTitle), protoreflect.ValueOfString(rec.Title))
		list.Append(protoreflect.ValueOfMessage(item))
	}
	return m
}

// ResponseFromMessage converts a wire RecommendationResponse.
func ResponseFromMessage(m protoreflect.Message) (*RecommendationResponse, error) {
	if m.Descriptor().FullName() != responseDesc.FullName() {
		return nil, fmt.Errorf("unexpected message %s, want %s", m.Descriptor().FullName(), responseDesc.FullName())
	}

	list := m.Get(responseDesc.Fields().ByNumber(fieldRecommendations)).List()
	itemFields := itemDesc.Fields()

	resp := &RecommendationResponse{Recommendations: make([]BookRecommendation, 0, list.Len())}
	for i := 0; i < list.Len(); i++ {
		item := list.Get(i).Message()
		resp.Recommendations = append(resp.Recommendations, BookRecommendation{
			ID:    int32(item.Get(itemFields.ByNumber(fieldItemID)).Int()),
			Title: item.Get(itemFields.ByNumber(fieldItemTitle)).String(),
		})
	}
	return resp, nil
}

// Marshal encodes r in protobuf binary form.
func (r *RecommendationRequest) Marshal() ([]byte, error) {
	return proto.Marshal(r.ToMessage())
}

// UnmarshalRequest decodes a protobuf binary RecommendationRequest.
func UnmarshalRequest(b []byte) (*RecommendationRequest, error) {
	m := NewRequestMessage()
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return RequestFromMessage(m)
}

// Marshal encodes r in protobuf binary form.
func (r *RecommendationResponse) Marshal() ([]byte, error) {
	return proto.Marshal(r.ToMessage())
}

// UnmarshalResponse decodes a protobuf binary RecommendationResponse.
func UnmarshalResponse(b []byte) (*RecommendationResponse, error) {
	m := NewResponseMessage()
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return ResponseFromMessage(m)
}

// MarshalJSON renders r using the canonical protobuf JSON mapping.
func (r *RecommendationResponse) MarshalJSON() ([]byte, error) {
	return protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(r.ToMessage())
}
