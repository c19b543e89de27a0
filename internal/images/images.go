// Package images checks listing images against a marketplace's image rules.
//
// Validation never drops or reorders images beyond truncation to the
// platform's image limit, and never touches pixels: it reports what is wrong
// and computes the size an image should be resized to.
package images

import (
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// aspectTolerance is the allowed absolute difference between an image's
// width/height ratio and the configured target ratio.
const aspectTolerance = 0.1

// ErrNoImages is the only image problem that blocks export.
const ErrNoImages = "no images registered"

// Metadata describes one image. Zero values mean "unknown".
type Metadata struct {
	URL        string  `json:"url"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FileSizeMB float64 `json:"fileSizeMB,omitempty"`
	Format     string  `json:"format,omitempty"`
}

// HasDimensions reports whether both width and height are known.
func (m Metadata) HasDimensions() bool {
	return m.Width > 0 && m.Height > 0
}

// Result is the aggregate outcome of Validate.
type Result struct {
	OriginalImages           []Metadata `json:"originalImages"`
	ProcessedImages          []Metadata `json:"processedImages"`
	Warnings                 []string   `json:"warnings"`
	Errors                   []string   `json:"errors"`
	RequiresResize           bool       `json:"requiresResize"`
	RequiresFormatConversion bool       `json:"requiresFormatConversion"`
}

// URLs returns the URLs of the processed images in order.
func (r Result) URLs() []string {
	urls := make([]string, len(r.ProcessedImages))
	for i, img := range r.ProcessedImages {
		urls[i] = img.URL
	}
	return urls
}

// NormalizeFormat lower-cases a format, strips a leading dot and maps
// "jpeg" to "jpg".
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	if f == "jpeg" {
		return "jpg"
	}
	return f
}

// Validate checks images against the rules of p.
func Validate(images []Metadata, p platform.Platform) Result {
	cfg := platform.Config(p)
	return validate(images, cfg.MaxImages, cfg.ImageRequirements)
}

func validate(images []Metadata, maxImages int, req platform.ImageRequirements) Result {
	res := Result{
		OriginalImages:  images,
		ProcessedImages: []Metadata{},
		Warnings:        []string{},
		Errors:          []string{},
	}

	if len(images) == 0 {
		res.Errors = append(res.Errors, ErrNoImages)
		return res
	}

	retained := images
	if len(images) > maxImages {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d images exceed the limit of %d; only the first %d are used", len(images), maxImages, maxImages))
		retained = images[:maxImages]
	}
	res.ProcessedImages = append(res.ProcessedImages, retained...)

	targetRatio, hasRatio := req.TargetRatio()

	for i, img := range retained {
		label := fmt.Sprintf("image %d", i+1)

		if img.HasDimensions() {
			if img.Width < req.MinWidth || img.Height < req.MinHeight {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s is %dx%d, below the minimum %dx%d", label, img.Width, img.Height, req.MinWidth, req.MinHeight))
				res.RequiresResize = true
			}
			if req.HasMaxBounds() && (img.Width > req.MaxWidth || img.Height > req.MaxHeight) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s is %dx%d, above the maximum %dx%d", label, img.Width, img.Height, req.MaxWidth, req.MaxHeight))
				res.RequiresResize = true
			}
			if hasRatio {
				actual := float64(img.Width) / float64(img.Height)
				if math.Abs(actual-targetRatio) > aspectTolerance {
					res.Warnings = append(res.Warnings, fmt.Sprintf(
						"%s aspect ratio %.2f does not match the required %s", label, actual, req.AspectRatio))
				}
			}
		}

		if img.FileSizeMB > 0 && req.MaxFileSizeMB > 0 && img.FileSizeMB > req.MaxFileSizeMB {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%s is %.1fMB, above the limit of %gMB", label, img.FileSizeMB, req.MaxFileSizeMB))
		}

		if img.Format != "" {
			if f := NormalizeFormat(img.Format); !req.SupportsFormat(f) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"%s format %q is not supported (supported: %s)", label, f, strings.Join(req.SupportedFormats, ", ")))
				res.RequiresFormatConversion = true
			}
		}
	}

	return res
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CalculateRecommendedSize returns the dimensions an image of width x height
// should be resized to. It scales up to the minimums, then scales down to
// the maximums, then crops to the target aspect ratio, in that order.
func CalculateRecommendedSize(width, height int, req platform.ImageRequirements) Size {
	if width <= 0 || height <= 0 {
		return Size{Width: req.MinWidth, Height: req.MinHeight}
	}

	w, h := float64(width), float64(height)

	if width < req.MinWidth || height < req.MinHeight {
		scale := math.Max(float64(req.MinWidth)/w, float64(req.MinHeight)/h)
		w = math.Round(w * scale)
		h = math.Round(h * scale)
	}

	if req.HasMaxBounds() && (w > float64(req.MaxWidth) || h > float64(req.MaxHeight)) {
		scale := math.Min(float64(req.MaxWidth)/w, float64(req.MaxHeight)/h)
		w = math.Round(w * scale)
		h = math.Round(h * scale)
	}

	if target, ok := req.TargetRatio(); ok {
		current := w / h
		if math.Abs(current-target) > aspectTolerance {
			if current > target {
				w = math.Round(h * target)
			} else {
				h = math.Round(w / target)
			}
		}
	}

	return Size{Width: int(w), Height: int(h)}
}

// RecommendedSize is CalculateRecommendedSize using the rules of p.
func RecommendedSize(width, height int, p platform.Platform) Size {
	return CalculateRecommendedSize(width, height, platform.Config(p).ImageRequirements)
}

// AdjustList truncates urls to the image limit of p without metadata checks.
// It warns when the list was truncated or is empty.
func AdjustList(urls []string, p platform.Platform) (adjusted []string, warnings []string) {
	maxImages := platform.MaxImages(p)
	adjusted = urls
	if len(urls) > maxImages {
		adjusted = urls[:maxImages]
		warnings = append(warnings, fmt.Sprintf(
			"%d images exceed the %s limit of %d; only the first %d are used", len(urls), p, maxImages, maxImages))
	}
	if len(adjusted) == 0 {
		warnings = append(warnings, ErrNoImages)
	}
	out := make([]string, len(adjusted))
	copy(out, adjusted)
	return out, warnings
}
