package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/torontotech/meetups/internal/fetch"
	"github.com/torontotech/meetups/internal/meetup"
)

// Storefront reads the profile of a community that publishes through a
// Shopify storefront. The storefront has no event listing.
type Storefront struct {
	Name string
}

// Profile implements ProfileExtractor. Each location card is appended to the
// description as "title: address".
func (s Storefront) Profile(page fetch.Page) (meetup.Profile, error) {
	doc, err := parse(page)
	if err != nil {
		return meetup.Profile{}, err
	}

	img := doc.Find(fmt.Sprintf(`img[alt=%q]`, s.Name)).First()
	name := strings.TrimSpace(img.AttrOr("alt", ""))
	if name == "" {
		name = s.Name
	}

	description := joinParagraphs(doc.Find(`div[class*="rich_text"] p`))

	var locations []string
	doc.Find(".multicolumn__item").Each(func(_ int, item *goquery.Selection) {
		title := cleanText(item.Find("h3").First().Text())
		address := cleanText(item.Find("p a").First().Text())
		if title == "" && address == "" {
			return
		}
		locations = append(locations, title+": "+address)
	})
	if len(locations) > 0 {
		description = strings.TrimSpace(description + "\n\nLocations:\n" + strings.Join(locations, "\n"))
	}

	return meetup.Profile{
		Name:        name,
		Description: description,
		Logo:        attrURL(page, img, "src"),
	}, nil
}
