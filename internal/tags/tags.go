// Package tags converts between the comma separated tag input used by the
// upload and edit forms and shared tag records.
package tags

import (
	"context"
	"fmt"
	"strings"

	"github.com/notes-bin/imagehoster/internal/model"
)

// Separator 分隔标签名，标签名本身不能包含逗号
const Separator = ","

// Store is the tag persistence boundary.
//
// CreateTag must be insert-if-absent: when a tag with the same name already
// exists it returns that record instead of creating a second one.
type Store interface {
	GetTagByName(ctx context.Context, name string) (*model.Tag, error)
	CreateTag(ctx context.Context, name string) (*model.Tag, error)
}

// Split returns the trimmed, non-empty, de-duplicated names in s in the order
// they first appear.
func Split(s string) []string {
	names := []string{}
	seen := make(map[string]struct{})
	for _, token := range strings.Split(s, Separator) {
		name := strings.TrimSpace(token)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Normalize resolves every name in s to a tag record, creating the ones the
// store does not know yet.
func Normalize(ctx context.Context, s string, store Store) ([]model.Tag, error) {
	names := Split(s)
	out := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := store.GetTagByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup tag %q: %w", name, err)
		}
		if tag == nil {
			// 不存在则创建（存储层保证同名只会有一条记录）
			tag, err = store.CreateTag(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
		}
		out = append(out, *tag)
	}
	return out, nil
}

// Stringify joins tag names with Separator.
func Stringify(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return strings.Join(names, Separator)
}
