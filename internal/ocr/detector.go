package ocr

import (
	"context"
	"errors"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNoAnnotations means detection succeeded but found no text.
var ErrNoAnnotations = errors.New("no text annotations")

// TextDetector turns image bytes into the full recognized text.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
	Close() error
}

// DetectionError wraps a failed Vision call with its gRPC code.
type DetectionError struct {
	Code codes.Code
	Err  error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("text detection failed (%s): %v", e.Code, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionDetector calls the Cloud Vision TEXT_DETECTION feature.
type VisionDetector struct {
	annotate annotateFunc
	close    func() error
}

// NewVisionDetector builds a detector from a service-account JSON blob.
func NewVisionDetector(ctx context.Context, credentialsJSON []byte) (*VisionDetector, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &VisionDetector{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close: client.Close,
	}, nil
}

// DetectText returns the first annotation, which Vision fills with the whole
// text of the image.
func (d *VisionDetector) DetectText(ctx context.Context, image []byte) (string, error) {
	resp, err := d.annotate(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return "", &DetectionError{Code: status.Code(err), Err: err}
	}
	if len(resp.GetResponses()) == 0 {
		return "", &DetectionError{Code: codes.Internal, Err: errors.New("empty response from vision")}
	}

	res := resp.GetResponses()[0]
	if e := res.GetError(); e != nil && e.GetCode() != int32(codes.OK) {
		return "", &DetectionError{Code: codes.Code(e.GetCode()), Err: errors.New(e.GetMessage())}
	}
	annotations := res.GetTextAnnotations()
	if len(annotations) == 0 {
		return "", ErrNoAnnotations
	}
	return annotations[0].GetDescription(), nil
}

func (d *VisionDetector) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}
