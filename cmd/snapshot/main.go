// snapshot renders the gallery page in a headless browser and saves a
// screenshot, for use as a link-preview image.
package main

import (
	"bytes"
	"context"
	"flag"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"k8s.io/klog/v2"
)

var (
	pageURL = flag.String("url", "", "URL of the gallery page (e.g. http://localhost:12801/)")
	outFile = flag.String("o", "gallery.png", "output file (.png or .jpg)")
	width   = flag.Int("width", 1200, "viewport width")
	height  = flag.Int("height", 630, "viewport height")
	quality = flag.Int("quality", 90, "JPEG quality")
	timeout = flag.Duration("timeout", 30*time.Second, "browser timeout")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *pageURL == "" {
		klog.Exitf("--url is a required flag")
	}

	format := "png"
	if strings.HasSuffix(*outFile, ".jpg") || strings.HasSuffix(*outFile, ".jpeg") {
		format = "jpg"
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.WindowSize(*width, *height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(*pageURL),
		chromedp.WaitVisible(`#gallery-layout, #no-photos`, chromedp.ByQuery),
		chromedp.CaptureScreenshot(&shot),
	}

	klog.Infof("rendering %s ...", *pageURL)
	if err := chromedp.Run(ctx, tasks); err != nil {
		klog.Exitf("chromedp execution failed: %v", err)
	}

	if len(shot) == 0 {
		klog.Exitf("screenshot buffer is empty")
	}

	out := shot
	if format == "jpg" {
		// Chrome screenshots are PNG; re-encode.
		img, err := png.Decode(bytes.NewReader(shot))
		if err != nil {
			klog.Exitf("decode screenshot: %v", err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: *quality}); err != nil {
			klog.Exitf("encode jpeg: %v", err)
		}
		out = buf.Bytes()
	}

	if err := os.WriteFile(*outFile, out, 0o644); err != nil {
		klog.Exitf("write %s: %v", *outFile, err)
	}
	klog.Infof("wrote %s (%d bytes)", *outFile, len(out))
}
