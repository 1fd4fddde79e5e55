package distill

import "context"

// questionTask is one leaf tag's question deficit.
type questionTask struct {
	tag      Tag
	tagPath  string
	need     int
	existing []string
}

// generateQuestions tops every leaf tag up to QuestionsPerTag questions.
// Leaves are tags with no children sitting at exactly the configured depth;
// shallower childless tags are dead branches and are skipped.
func (p *Pipeline) generateQuestions(ctx context.Context) error {
	p.setStage(StageQuestions)
	p.tracker.Logf("Tag tree built, starting to generate questions for leaf tags...")

	allTags, err := p.catalog.Tags(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get tags: %v", err)
		p.logWarn("tag listing failed", "stage", StageQuestions, "error", err)
		return nil
	}

	hasChildren := make(map[string]bool)
	byID := make(map[string]Tag, len(allTags))
	for _, t := range allTags {
		byID[t.ID] = t
		if t.ParentID != "" {
			hasChildren[t.ParentID] = true
		}
	}

	var leaves []Tag
	for _, t := range allTags {
		if !hasChildren[t.ID] && tagDepth(t, byID) == p.cfg.Levels {
			leaves = append(leaves, t)
		}
	}
	p.tracker.Logf("Found %d leaf tags, starting to generate questions...", len(leaves))

	questions, err := p.catalog.Questions(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get questions: %v", err)
		p.logWarn("question listing failed", "stage", StageQuestions, "error", err)
		return nil
	}

	p.tracker.Set(QuestionsTotal, len(leaves)*p.cfg.QuestionsPerTag)

	var tasks []questionTask
	for _, tag := range leaves {
		var existing []string
		for _, q := range questions {
			if q.Label == tag.Label {
				existing = append(existing, q.Text)
			}
		}
		need := p.cfg.QuestionsPerTag - len(existing)
		if need > 0 {
			tasks = append(tasks, questionTask{
				tag:      tag,
				tagPath:  p.tagPath(tag, byID),
				need:     need,
				existing: existing,
			})
			p.tracker.Logf("Preparing to generate %d questions for tag %q...", need, tag.Label)
		} else {
			p.tracker.Logf("Tag %q already has %d questions, no need to generate new questions", tag.Label, len(existing))
		}
	}

	p.tracker.Logf("Total %d tags need questions, concurrency limit: %d", len(tasks), p.cfg.Concurrency)

	RunBatch(ctx, tasks, p.cfg.Concurrency, func(ctx context.Context, task questionTask) error {
		p.tracker.Logf("Generating %d questions for tag %q...", task.need, task.tag.Label)
		created, err := p.gen.GenerateQuestions(ctx, QuestionRequest{
			ProjectID: p.cfg.ProjectID,
			Tag:       task.tag,
			TagPath:   task.tagPath,
			Count:     task.need,
			Existing:  task.existing,
			Model:     p.cfg.Model,
			Language:  p.cfg.Language,
		})
		if err != nil {
			p.tracker.Logf("Failed to generate questions for tag %q: %v", task.tag.Label, err)
			return err
		}
		p.tracker.Add(QuestionsBuilt, len(created))
		p.tracker.Logf("Successfully generated %d questions for tag %q", len(created), task.tag.Label)
		return nil
	})

	return ctx.Err()
}
