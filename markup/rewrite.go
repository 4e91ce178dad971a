package markup

import (
	"fmt"
	"path/filepath"
	"regexp"

	"golang.org/x/net/html"

	"pdfpages/common"
)

// RewriteOptions describe where page assets are published.
type RewriteOptions struct {
	PageID        string
	StoragePrefix string
	ImageFormat   string // extension of converter background images
	SourceFolder  string // converter output folder with images
	ImageFolder   string // page image folder
}

// ImageCopy is an image which has to be copied for rewritten markup to work.
type ImageCopy struct {
	Source      string
	Destination string
	URL         string
}

// Rewritten is page markup with references pointing to final locations.
type Rewritten struct {
	HTML   []byte
	Marker *Marker
	Images []ImageCopy
}

// RootID returns id page root element gets for page with given id.
func RootID(pageID string) string {
	return "pf-" + pageID
}

// Rewrite sets page root id, opens links in new window and points converter
// background images to their public location. Tags which are not changed are
// kept byte for byte.
func Rewrite(data []byte, opts RewriteOptions) (*Rewritten, error) {
	imageName := regexp.MustCompile(`^[A-Za-z0-9]+\.` + regexp.QuoteMeta(opts.ImageFormat) + `$`)
	rootID := RootID(opts.PageID)

	var images []ImageCopy
	visit := func(tok *html.Token, root bool) bool {
		changed := false
		if root {
			changed = setAttr(tok, attrID, rootID) || changed
		}
		if tok.Data == "a" {
			changed = setAttr(tok, "target", "_blank") || changed
		}
		for i := range tok.Attr {
			if !imageName.MatchString(tok.Attr[i].Val) {
				continue
			}
			name := fmt.Sprintf("%s-%d.%s", opts.PageID, len(images)+1, opts.ImageFormat)
			img := ImageCopy{
				Source:      filepath.Join(opts.SourceFolder, tok.Attr[i].Val),
				Destination: filepath.Join(opts.ImageFolder, name),
				URL:         common.JoinURL(opts.StoragePrefix, "pages", opts.PageID, "images", name),
			}
			images = append(images, img)
			tok.Attr[i].Val = img.URL
			changed = true
		}
		return changed
	}

	res, err := scan(data, visit)
	if err != nil {
		return nil, err
	}
	res.Marker.RootID = rootID
	res.Images = images
	return res, nil
}

// setAttr sets attribute value adding attribute when necessary, it returns
// true if tag was changed.
func setAttr(tok *html.Token, key, val string) bool {
	for i := range tok.Attr {
		if tok.Attr[i].Namespace == "" && tok.Attr[i].Key == key {
			if tok.Attr[i].Val == val {
				return false
			}
			tok.Attr[i].Val = val
			return true
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
	return true
}
