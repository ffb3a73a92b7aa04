package models

import (
	"context"
	"errors"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// Group is a node of the rooted group forest. The chain of an item is the
// root..leaf path obtained by following parent_id upward.
type Group struct {
	GroupId   string  `gorm:"primaryKey;size:100" json:"group_id"`
	Name      string  `gorm:"size:100;not null" json:"name"`
	ParentId  *string `gorm:"index;size:100" json:"parent_id"`
	CreatedAt string  `gorm:"size:40" json:"created_at"`
}

// maxGroupDepth caps the chain walk so a cycle in stored data cannot hang a
// report.
const maxGroupDepth = 32

// ResolveGroupChain walks parent_id upward and returns names root-first.
// Cycles and missing parents terminate the walk instead of failing it.
func ResolveGroupChain(groups map[string]*Group, groupId string) []string {
	var reversed []string
	visited := make(map[string]bool)
	current := groupId
	for depth := 0; depth < maxGroupDepth; depth++ {
		if current == "" || visited[current] {
			break
		}
		g, ok := groups[current]
		if !ok {
			break
		}
		visited[current] = true
		reversed = append(reversed, g.Name)
		if g.ParentId == nil {
			break
		}
		current = *g.ParentId
	}
	chain := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		chain = append(chain, reversed[i])
	}
	return chain
}

// GroupTiers maps a chain to the (group, subgroup) pair used for report
// nesting; missing tiers become "Unknown".
func GroupTiers(chain []string) (string, string) {
	group, subgroup := UnknownGroup, UnknownGroup
	if len(chain) > 0 {
		group = chain[0]
	}
	if len(chain) > 1 {
		subgroup = chain[1]
	}
	return group, subgroup
}

// LoadGroupIndex scans GROUPS into an id-keyed map for chain resolution.
func LoadGroupIndex(ctx context.Context) (map[string]*Group, error) {
	groups, err := storage.Scan[Group](ctx, "")
	if err != nil {
		return nil, err
	}
	index := make(map[string]*Group, len(groups))
	for _, g := range groups {
		index[g.GroupId] = g
	}
	return index, nil
}

type NewGroup struct {
	GroupId  string  `json:"group_id" binding:"required"`
	Name     string  `json:"name"`
	ParentId *string `json:"parent_id"`
}

func CreateGroup(ctx context.Context, input *NewGroup) (*Group, error) {
	if input.GroupId == "" {
		return nil, errors.New("group_id is required")
	}
	name := input.Name
	if name == "" {
		name = input.GroupId
	}
	if existing, err := storage.Get[Group](ctx, input.GroupId); err == nil && existing != nil {
		return nil, errors.New("group already exist")
	}
	if input.ParentId != nil && *input.ParentId != "" {
		if _, err := storage.Get[Group](ctx, *input.ParentId); err != nil {
			return nil, errors.New("parent group not found")
		}
	} else {
		input.ParentId = nil
	}

	group := Group{
		GroupId:   input.GroupId,
		Name:      name,
		ParentId:  input.ParentId,
		CreatedAt: utils.NowISTString(),
	}
	if err := storage.Create(ctx, &group); err != nil {
		if storage.IsDuplicateKey(err) {
			return nil, errors.New("group already exist")
		}
		return nil, err
	}
	return &group, nil
}

func ListGroups(ctx context.Context) ([]*Group, error) {
	return storage.Scan[Group](ctx, "")
}

// DeleteGroup refuses while any stock item or child group still references the
// group.
func DeleteGroup(ctx context.Context, groupId string) error {
	if _, err := storage.Get[Group](ctx, groupId); err != nil {
		return errors.New("group not found")
	}
	itemCount, err := storage.Count[StockItem](ctx, "group_id = ?", groupId)
	if err != nil {
		return err
	}
	if itemCount > 0 {
		return errors.New("group is still referenced by stock items")
	}
	childCount, err := storage.Count[Group](ctx, "parent_id = ?", groupId)
	if err != nil {
		return err
	}
	if childCount > 0 {
		return errors.New("group has child groups")
	}
	return storage.Delete[Group](ctx, groupId)
}
