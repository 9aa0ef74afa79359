package core

import (
	"tutorcore/pkg/domain"
)

func applyAddProgressReport(tx Transaction, p domain.AddProgressReport) error {
	report := p.Report
	if report.Date == "" {
		report.Date = tx.Now()
	}
	_, err := tx.CreateProgressReport(report)
	return err
}

func applyUpdateProgressReport(tx Transaction, p domain.UpdateProgressReport) error {
	incoming := p.Report
	_, err := tx.UpdateProgressReport(incoming.ID, func(r *ProgressReport) error {
		r.StudentID = incoming.StudentID
		r.ClassID = incoming.ClassID
		r.Date = incoming.Date
		r.Content = incoming.Content
		return nil
	})
	return err
}

func applyDeleteProgressReport(tx Transaction, p domain.DeleteProgressReport) error {
	return tx.DeleteProgressReport(p.ID)
}
