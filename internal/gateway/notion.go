package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
)

type notionGateway struct {
	client *notionapi.Client
}

// NewNotionGateway builds a NotionGateway over an integration token.
func NewNotionGateway(apiKey string) NotionGateway {
	return &notionGateway{client: notionapi.NewClient(notionapi.Token(apiKey))}
}

func (g *notionGateway) GetPage(ctx context.Context, pageID string) (*Page, error) {
	page, err := g.client.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, fmt.Errorf("fetch notion page %s: %w", pageID, err)
	}
	return &Page{
		ID:             pageID,
		Title:          pageTitle(page),
		LastEditedTime: page.LastEditedTime,
	}, nil
}

func (g *notionGateway) GetPageContent(ctx context.Context, pageID string) (*Page, error) {
	page, err := g.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	var lines []string
	cursor := notionapi.Cursor("")
	for {
		resp, err := g.client.Block.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch notion blocks for %s: %w", pageID, err)
		}
		for _, block := range resp.Results {
			if line := renderBlock(block); line != "" {
				lines = append(lines, line)
			}
		}
		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
	page.Content = strings.Join(lines, "\n")
	return page, nil
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return richTextPlain(title.Title)
		}
	}
	return ""
}

// renderBlock flattens a block to one prompt-friendly text line. Block types
// that carry no prose (images, embeds, dividers) render as empty strings.
func renderBlock(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richTextPlain(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return "# " + richTextPlain(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return "## " + richTextPlain(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return "### " + richTextPlain(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return "- " + richTextPlain(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return "- " + richTextPlain(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		marker := "[ ]"
		if b.ToDo.Checked {
			marker = "[x]"
		}
		return marker + " " + richTextPlain(b.ToDo.RichText)
	case *notionapi.QuoteBlock:
		return "> " + richTextPlain(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return richTextPlain(b.Callout.RichText)
	case *notionapi.CodeBlock:
		return richTextPlain(b.Code.RichText)
	default:
		return ""
	}
}

func richTextPlain(parts []notionapi.RichText) string {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return sb.String()
}
