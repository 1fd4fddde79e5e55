package distill

import "context"

// generateAnswers produces one single-turn answer for every unanswered
// question. Answers that already exist count toward the total immediately.
func (p *Pipeline) generateAnswers(ctx context.Context) error {
	p.setStage(StageDatasets)
	p.tracker.Logf("Question generation completed, starting to generate answers...")

	questions, err := p.catalog.Questions(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get questions: %v", err)
		p.logWarn("question listing failed", "stage", StageDatasets, "error", err)
		return nil
	}

	var unanswered []Question
	answered := 0
	for _, q := range questions {
		if q.Answered {
			answered++
		} else {
			unanswered = append(unanswered, q)
		}
	}

	p.tracker.Set(DatasetsTotal, len(questions))
	p.tracker.Set(DatasetsBuilt, answered)

	p.tracker.Logf("Found %d unanswered questions, preparing to generate answers...", len(unanswered))
	p.tracker.Logf("Dataset generation concurrency limit: %d", p.cfg.Concurrency)

	RunBatch(ctx, unanswered, p.cfg.Concurrency, func(ctx context.Context, q Question) error {
		p.tracker.Logf("Generating answer for %q (ID: %s)...", q.Text, q.ID)
		err := p.gen.GenerateAnswer(ctx, AnswerRequest{
			ProjectID: p.cfg.ProjectID,
			Question:  q,
			Model:     p.cfg.Model,
			Language:  p.cfg.Language,
		})
		if err != nil {
			p.tracker.Logf("Failed to generate answer for %q (ID: %s): %v", q.Text, q.ID, err)
			return err
		}
		p.tracker.Add(DatasetsBuilt, 1)
		p.tracker.Logf("Successfully generated answer for %q (ID: %s)", q.Text, q.ID)
		return nil
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	p.tracker.Logf("Dataset generation completed")
	return nil
}
