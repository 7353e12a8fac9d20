package registry

// Catalogue returns the built-in NAAC criteria definitions.
func Catalogue() []Definition {
	return []Definition{
		{
			Code:           "2.1.1",
			Name:           "Number of teaching staff joined the institution during the last five years",
			RequiredFields: []string{"programme_name", "year", "no_of_students"},
			CriticalFields: []string{"programme_name", "year", "no_of_students"},
			Rules: map[string]string{
				"year":           RuleWithinAssessmentPeriod,
				"no_of_students": RulePositiveNumber,
				"designation":    RuleTeachingPosition,
			},
		},
		{
			Code: "3.1.1",
			Name: "Grants received from Government and non-governmental agencies for research projects",
			RequiredFields: []string{
				"name_of_project", "name_of_principal_investigator", "name_of_funding_agency",
				"amount_sanctioned", "year_of_award",
			},
			CriticalFields: []string{
				"name_of_project", "name_of_principal_investigator", "name_of_funding_agency",
				"amount_sanctioned", "year_of_award",
			},
			Rules: map[string]string{
				"amount_sanctioned": RulePositiveNumberCrores,
				"year_of_award":     RuleWithinAssessmentPeriod,
			},
		},
		{
			Code: "3.1.2",
			Name: "Grants received from Government and non-governmental agencies for research projects (3.1.2)",
			RequiredFields: []string{
				"name_of_project", "name_of_principal_investigator", "name_of_funding_agency",
				"amount_sanctioned", "year_of_award",
			},
			CriticalFields: []string{
				"name_of_project", "name_of_principal_investigator", "name_of_funding_agency",
				"amount_sanctioned", "year_of_award",
			},
			Rules: map[string]string{
				"amount_sanctioned": RulePositiveNumberCrores,
				"year_of_award":     RuleWithinAssessmentPeriod,
			},
		},
		{
			Code:           "3.1.3",
			Name:           "Number of research projects per teacher funded by government and non government agencies during the last five years",
			RequiredFields: []string{"workshop_name", "participants", "date_from", "date_to"},
			CriticalFields: []string{"workshop_name", "participants"},
			Rules:          map[string]string{"participants": RulePositiveNumber},
		},
		{
			Code:           "3.2.1",
			Name:           "Institution has created an ecosystem for innovations and has initiatives for creation and transfer of knowledge",
			RequiredFields: []string{"paper_title", "author_names", "journal_name", "year_of_publication"},
			CriticalFields: []string{"paper_title", "author_names", "journal_name"},
			Rules: map[string]string{
				"year_of_publication": RuleWithinAssessmentPeriod,
				"ugc_listed":          RuleUGCListed,
			},
		},
		{
			Code: "3.2.2",
			Name: "Number of books and chapters in edited volumes/books published and papers published in national/ international conference proceedings per teacher during last five years",
			RequiredFields: []string{
				"teacher_name", "book_chapter_title", "paper_title", "conference_title",
				"year_of_publication", "publisher_name",
			},
			CriticalFields: []string{"teacher_name", "paper_title", "year_of_publication"},
			Rules:          map[string]string{"year_of_publication": RuleWithinAssessmentPeriod},
		},
		{
			Code:           "3.3.2",
			Name:           "Number of awards and recognitions received for extension activities from government / government recognised bodies during the last five years",
			RequiredFields: []string{"activity_name", "award_name", "awarding_body", "year_of_award"},
			CriticalFields: []string{"award_name", "awarding_body", "year_of_award"},
			Rules:          map[string]string{"year_of_award": RuleWithinAssessmentPeriod},
		},
		{
			Code:           "3.3.3",
			Name:           "Number of extension and outreach programs conducted by the institution through NSS/NCC/Red cross/YRC etc., during the last five years",
			RequiredFields: []string{"activity_name", "collaborating_agency", "scheme_name", "student_count", "year"},
			CriticalFields: []string{"activity_name", "collaborating_agency", "year"},
			Rules: map[string]string{
				"student_count": RulePositiveNumber,
				"year":          RuleWithinAssessmentPeriod,
			},
		},
		{
			Code:           "3.3.4",
			Name:           "Average percentage of students participating in extension activities at 3.3.3 above during last five years",
			RequiredFields: []string{"activity_name", "activity_year", "no_of_teacher", "no_of_student", "scheme_name"},
			CriticalFields: []string{"activity_name", "activity_year", "scheme_name"},
			Rules: map[string]string{
				"no_of_teacher": RulePositiveNumber,
				"no_of_student": RulePositiveNumber,
				"activity_year": RuleWithinAssessmentPeriod,
			},
		},
		{
			Code:           "3.4.1",
			Name:           "The Institution has several collaborations/linkages for Faculty exchange, Student exchange, Internship, Field trip, On-job training, research etc during the last five years",
			RequiredFields: []string{"title_of_activity", "collaborating_agency", "participant_name", "year_of_collaboration", "duration"},
			CriticalFields: []string{"title_of_activity", "collaborating_agency", "year_of_collaboration"},
			Rules:          map[string]string{"year_of_collaboration": RuleWithinAssessmentPeriod},
		},
		{
			Code:           "3.4.2",
			Name:           "Number of functional MoUs with institutions, other universities, industries, corporate houses etc. during the last five years",
			RequiredFields: []string{"institution_name", "year_of_mou", "duration", "activities_list"},
			CriticalFields: []string{"institution_name", "year_of_mou"},
			Rules:          map[string]string{"year_of_mou": RuleWithinAssessmentPeriod},
		},
	}
}
