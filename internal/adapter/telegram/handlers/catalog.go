package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/usecase"
)

const (
	defaultPopular = 5
	listLimit      = 10
)

func (h *Handlers) popular(ctx context.Context, args []string) string {
	n := defaultPopular
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return "usage: /popular [n]"
		}
		n = v
	}
	creators, err := h.catalog.GetPopularCreators(ctx, n)
	if err != nil {
		return failure(err)
	}
	if len(creators) == 0 {
		return "no creators yet"
	}
	return creatorLines(creators)
}

func (h *Handlers) tags(ctx context.Context, args []string) string {
	page, err := h.catalog.SearchTagsByName(ctx, usecase.TagNameSearch{
		And:         strings.Join(args, " "),
		PageRequest: usecase.PageRequest{Limit: listLimit},
	})
	if err != nil {
		return failure(err)
	}
	if len(page.Items) == 0 {
		return "no matching tags"
	}
	var b strings.Builder
	for i, t := range page.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s (%d)", t.ID, t.DisplayName, t.ClickedCount)
	}
	if page.HasMore {
		fmt.Fprintf(&b, "\n... %d tags in total", page.TotalCount)
	}
	return b.String()
}

func (h *Handlers) creators(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "usage: /creators <tag id> [tag id...]"
	}
	page, err := h.catalog.SearchCreatorsByTags(ctx, usecase.CreatorTagSearch{
		TagIDs:      args,
		PageRequest: usecase.PageRequest{Limit: listLimit},
	})
	if err != nil {
		return failure(err)
	}
	if len(page.Items) == 0 {
		return "no creators carry these tags"
	}
	return creatorLines(page.Items)
}

func (h *Handlers) creator(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "usage: /creator <id>"
	}
	d, err := h.catalog.GetCreatorDetail(ctx, args[0])
	if err != nil {
		return failure(err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d views)", d.Creator.Name, d.Creator.ViewCount)
	if d.Creator.Description != "" {
		b.WriteString("\n" + d.Creator.Description)
	}
	for _, p := range domain.Platforms {
		if u := d.Creator.Platform[p]; u != "" {
			fmt.Fprintf(&b, "\n%s: %s", p, u)
		}
	}
	if len(d.Similar) > 0 {
		b.WriteString("\n\nSimilar:\n")
		b.WriteString(creatorLines(d.Similar))
	}
	return b.String()
}

func creatorLines(cs []domain.Creator) string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s  %s (%d views)", i+1, c.ID, c.Name, c.ViewCount)
	}
	return b.String()
}
