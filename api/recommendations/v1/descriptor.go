// Package v1 defines the recommendations.proto wire schema, built at runtime
// from a descriptor so no generated stubs are needed.
//
// The schema is equivalent to:
//
//	syntax = "proto3";
//	package recommendations;
//
//	enum BookCategory {
//	    MYSTERY = 0;
//	    SCIENCE_FICTION = 1;
//	    SELF_HELP = 2;
//	}
//
//	message RecommendationRequest {
//	    int32 user_id = 1;
//	    BookCategory category = 2;
//	    int32 max_results = 3;
//	}
//
//	message BookRecommendation {
//	    int32 id = 1;
//	    string title = 2;
//	}
//
//	message RecommendationResponse {
//	    repeated BookRecommendation recommendations = 1;
//	}
//
//	service Recommendations {
//	    rpc Recommend (RecommendationRequest) returns (RecommendationResponse);
//	}
package v1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Schema names.
const (
	FileName    = "recommendations.proto"
	PackageName = "recommendations"
	ServiceName = PackageName + ".Recommendations"

	RecommendMethod         = "Recommend"
	RecommendFullMethodName = "/" + ServiceName + "/" + RecommendMethod
)

// Field numbers.
const (
	fieldUserID          protoreflect.FieldNumber = 1
	fieldCategory        protoreflect.FieldNumber = 2
	fieldMaxResults      protoreflect.FieldNumber = 3
	fieldItemID          protoreflect.FieldNumber = 1
	fieldItemTitle       protoreflect.FieldNumber = 2
	fieldRecommendations protoreflect.FieldNumber = 1
)

var (
	fileDesc     protoreflect.FileDescriptor
	requestDesc  protoreflect.MessageDescriptor
	itemDesc     protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor
	categoryDesc protoreflect.EnumDescriptor
	serviceDesc  protoreflect.ServiceDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("recommendations: invalid descriptor: %v", err))
	}

	// Registration lets the reflection service resolve the schema. A
	// conflicting registration means another copy of the schema is linked in.
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("recommendations: register descriptor: %v", err))
	}

	fileDesc = fd
	categoryDesc = fd.Enums().ByName("BookCategory")
	requestDesc = fd.Messages().ByName("RecommendationRequest")
	itemDesc = fd.Messages().ByName("BookRecommendation")
	responseDesc = fd.Messages().ByName("RecommendationResponse")
	serviceDesc = fd.Services().ByName("Recommendations")
}

// File returns the file descriptor of recommendations.proto.
func File() protoreflect.FileDescriptor {
	return fileDesc
}

// ServiceDescriptor returns the Recommendations service descriptor.
func ServiceDescriptor() protoreflect.ServiceDescriptor {
	return serviceDesc
}

// CategoryDescriptor returns the BookCategory enum descriptor.
func CategoryDescriptor() protoreflect.EnumDescriptor {
	return categoryDesc
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	int32Field := func(name string, number int32, jsonName string) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(jsonName),
			Number:   proto.Int32(number),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
		}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String(PackageName),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("BookCategory"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("MYSTERY"), Number: proto.Int32(0)},
				{Name: proto.String("SCIENCE_FICTION"), Number: proto.Int32(1)},
				{Name: proto.String("SELF_HELP"), Number: proto.Int32(2)},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("RecommendationRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					int32Field("user_id", int32(fieldUserID), "userId"),
					{
						Name:     proto.String("category"),
						JsonName: proto.String("category"),
						Number:   proto.Int32(int32(fieldCategory)),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
						TypeName: proto.String("." + PackageName + ".BookCategory"),
					},
					int32Field("max_results", int32(fieldMaxResults), "maxResults"),
				},
			},
			{
				Name: proto.String("BookRecommendation"),
				Field: []*descriptorpb.FieldDescriptorProto{
					int32Field("id", int32(fieldItemID), "id"),
					{
						Name:     proto.String("title"),
						JsonName: proto.String("title"),
						Number:   proto.Int32(int32(fieldItemTitle)),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					},
				},
			},
			{
				Name: proto.String("RecommendationResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{{
					Name:     proto.String("recommendations"),
					JsonName: proto.String("recommendations"),
					Number:   proto.Int32(int32(fieldRecommendations)),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String("." + PackageName + ".BookRecommendation"),
				}},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("Recommendations"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String(RecommendMethod),
				InputType:  proto.String("." + PackageName + ".RecommendationRequest"),
				OutputType: proto.String("." + PackageName + ".RecommendationResponse"),
			}},
		}},
	}
}
