//go:build darwin

package ocr

/*
#cgo CFLAGS: -x objective-c -mmacosx-version-min=10.15
#cgo LDFLAGS: -framework Foundation -framework Vision -framework CoreGraphics
#import <Foundation/Foundation.h>
#import <Vision/Vision.h>
#import <objc/message.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
	char *text;
	double x;
	double y;
	double width;
	double height;
} snap_observation;

typedef struct {
	snap_observation *items;
	int count;
	char *err_msg;
} snap_vision_result;

static char *snap_copy_string(NSString *s) {
	const char *utf8 = [s UTF8String];
	return strdup(utf8 != NULL ? utf8 : "");
}

static snap_vision_result snap_recognize(const void *bytes, size_t len, char **langs, int nlangs) {
	snap_vision_result out;
	memset(&out, 0, sizeof(out));

	@autoreleasepool {
		NSData *data = [NSData dataWithBytes:bytes length:len];
		VNImageRequestHandler *handler = [[VNImageRequestHandler alloc] initWithData:data options:@{}];
		VNRecognizeTextRequest *request = [[VNRecognizeTextRequest alloc] init];

		NSMutableArray *languages = [NSMutableArray arrayWithCapacity:(NSUInteger)nlangs];
		for (int i = 0; i < nlangs; i++) {
			[languages addObject:[NSString stringWithUTF8String:langs[i]]];
		}
		request.recognitionLanguages = languages;
		request.recognitionLevel = VNRequestTextRecognitionLevelAccurate;
		request.usesLanguageCorrection = YES;

		SEL detect = NSSelectorFromString(@"setAutomaticallyDetectsLanguage:");
		if ([request respondsToSelector:detect]) {
			((void (*)(id, SEL, BOOL))objc_msgSend)(request, detect, YES);
		}

		NSError *err = nil;
		if (![handler performRequests:@[request] error:&err]) {
			out.err_msg = snap_copy_string(err != nil ? [err localizedDescription] : @"text recognition request failed");
		} else {
			NSArray *results = request.results;
			if (results.count > 0) {
				out.items = calloc(results.count, sizeof(snap_observation));
			}
			int n = 0;
			for (VNRecognizedTextObservation *obs in results) {
				NSArray *candidates = [obs topCandidates:1];
				if (candidates.count == 0) {
					continue;
				}
				VNRecognizedText *best = candidates[0];
				CGRect box = obs.boundingBox;
				out.items[n].text = snap_copy_string(best.string);
				out.items[n].x = box.origin.x;
				out.items[n].y = box.origin.y;
				out.items[n].width = box.size.width;
				out.items[n].height = box.size.height;
				n++;
			}
			out.count = n;
		}

		[request release];
		[handler release];
	}
	return out;
}

static void snap_free_result(snap_vision_result *r) {
	for (int i = 0; i < r->count; i++) {
		free(r->items[i].text);
	}
	free(r->items);
	free(r->err_msg);
}
*/
import "C"

import (
	"context"
	"unsafe"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// New returns the Vision framework recognizer.
func New(opts Options) TextRecognizer {
	return &visionRecognizer{opts: opts.withDefaults()}
}

type visionRecognizer struct {
	opts Options
}

func (v *visionRecognizer) Name() string { return "vision" }

func (v *visionRecognizer) Recognize(ctx context.Context, image []byte, language string) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "ocr.vision")
	defer span.End()

	width, height, err := ImageSize(image)
	if err != nil {
		return nil, err
	}

	langs := VisionLanguages(v.opts.hint(language))
	span.SetAttr("languages", langs)
	cLangs := make([]*C.char, len(langs))
	for i, l := range langs {
		cLangs[i] = C.CString(l)
	}
	defer func() {
		for _, p := range cLangs {
			C.free(unsafe.Pointer(p))
		}
	}()

	res := C.snap_recognize(unsafe.Pointer(&image[0]), C.size_t(len(image)), &cLangs[0], C.int(len(cLangs)))
	defer C.snap_free_result(&res)

	if res.err_msg != nil {
		return nil, apperrors.New(apperrors.BackendExecutionFailed, "vision: "+C.GoString(res.err_msg))
	}

	items := unsafe.Slice(res.items, int(res.count))
	obs := make([]Observation, 0, len(items))
	for _, it := range items {
		obs = append(obs, Observation{
			Text: C.GoString(it.text),
			Box: NormalizedBox{
				X:      float64(it.x),
				Y:      float64(it.y),
				Width:  float64(it.width),
				Height: float64(it.height),
			},
		})
	}

	result := FromObservations(obs, width, height)
	trace.Logger(ctx).Debug("vision finished", "lines", len(result.Lines))
	return result, nil
}
