package schema

// GradeForScore maps a 0-100 score to a categorical grade.
// Both pattern effectiveness and overall health use the same cutoffs.
func GradeForScore(score int) Grade {
	switch {
	case score >= 90:
		return ExcellentGrade
	case score >= 75:
		return GoodGrade
	case score >= 60:
		return FairGrade
	default:
		return PoorGrade
	}
}

// Summarize returns the short form of an overview used by the health query.
func (o Overview) Summarize() OverviewSummary {
	return OverviewSummary{
		TotalValidations: o.TotalValidations,
		SuccessRate:      o.SuccessRate,
		QualityScore:     o.QualityScore,
		Trend:            o.Trend,
	}
}
