package distill

import (
	"context"
	"fmt"
	"strings"
)

// buildTagTree grows the tag tree level by level until it has Levels levels
// with TagsPerLevel children under every node. tagsTotal is the number of
// leaves a complete tree would have.
func (p *Pipeline) buildTagTree(ctx context.Context) error {
	total := 1
	for i := 0; i < p.cfg.Levels; i++ {
		total *= p.cfg.TagsPerLevel
	}
	p.tracker.Set(TagsTotal, total)

	return p.buildLevel(ctx, nil, "", 1)
}

// buildLevel tops up one node's children to TagsPerLevel and recurses into
// each child, depth first. A listing failure abandons this subtree only; a
// creation failure keeps going with whatever children already exist.
func (p *Pipeline) buildLevel(ctx context.Context, parent *Tag, parentPath string, level int) error {
	p.setStage(fmt.Sprintf("level%d", level))

	if level > p.cfg.Levels {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	all, err := p.catalog.Tags(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get level %d tags: %v", level, err)
		p.logWarn("tag listing failed", "level", level, "error", err)
		return nil
	}

	var current []Tag
	for _, t := range all {
		if parent == nil && t.ParentID == "" {
			current = append(current, t)
		} else if parent != nil && t.ParentID == parent.ID {
			current = append(current, t)
		}
	}

	need := p.cfg.TagsPerLevel - len(current)
	if need > 0 {
		parentLabel := p.cfg.Topic
		parentID := ""
		if level > 1 && parent != nil {
			parentLabel = parent.Label
			parentID = parent.ID
		}
		p.tracker.Logf("Tag tree level %d: Creating %d subtags for %q...", level, need, parentLabel)

		created, err := p.gen.GenerateTags(ctx, TagRequest{
			ProjectID: p.cfg.ProjectID,
			Parent:    parentLabel,
			ParentID:  parentID,
			TagPath:   p.generationPath(parentPath, parentLabel, level),
			Count:     need,
			Existing:  tagLabels(current),
			Model:     p.cfg.Model,
			Language:  p.cfg.Language,
		})
		if err != nil {
			p.tracker.Logf("Failed to create level %d tags: %v", level, err)
			p.logWarn("tag creation failed", "level", level, "parent", parentLabel, "error", err)
		} else {
			p.tracker.Add(TagsBuilt, len(created))
			p.tracker.Logf("Successfully created %d tags: %s", len(created), strings.Join(tagLabels(created), ", "))
			current = append(current, created...)
		}
	}

	if level < p.cfg.Levels {
		for i := range current {
			childPath := parentPath + " > " + current[i].Label
			if parentPath == "" {
				childPath = p.projectName + " > " + current[i].Label
			}
			if err := p.buildLevel(ctx, &current[i], childPath, level+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// generationPath is the tag path handed to the generator: always rooted at
// the project name, even when the accumulated path is missing or was built
// before the project was renamed.
func (p *Pipeline) generationPath(parentPath, parentLabel string, level int) string {
	switch {
	case level == 1, parentPath == "":
		if p.projectName != "" {
			return p.projectName
		}
		return parentLabel
	case !strings.HasPrefix(parentPath, p.projectName):
		return p.projectName + " > " + parentPath
	default:
		return parentPath
	}
}

// tagDepth is the 1-based depth of a tag, walking parent links.
func tagDepth(tag Tag, byID map[string]Tag) int {
	depth := 1
	current := tag
	for current.ParentID != "" {
		next, ok := byID[current.ParentID]
		if !ok {
			break
		}
		depth++
		current = next
	}
	return depth
}

// tagPath walks parent links to build "project > ancestor > ... > tag".
func (p *Pipeline) tagPath(tag Tag, byID map[string]Tag) string {
	var labels []string
	current := tag
	for {
		labels = append([]string{current.Label}, labels...)
		if current.ParentID == "" {
			break
		}
		next, ok := byID[current.ParentID]
		if !ok {
			break
		}
		current = next
	}
	if p.projectName != "" && len(labels) > 0 && labels[0] != p.projectName {
		labels = append([]string{p.projectName}, labels...)
	}
	return strings.Join(labels, " > ")
}

func tagLabels(tags []Tag) []string {
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.Label
	}
	return labels
}
