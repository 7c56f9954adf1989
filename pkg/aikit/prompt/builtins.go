package prompt

// Names of the embedded templates
var Templates = struct {
	Plan                string
	Execute             string
	Evaluate            string
	ImageAnalysis       string
	ImageQuestion       string
	PlantIdentification string
	PlantDiagnosis      string
}{
	Plan:                "plan",
	Execute:             "execute",
	Evaluate:            "evaluate",
	ImageAnalysis:       "image_analysis",
	ImageQuestion:       "image_question",
	PlantIdentification: "plant_identification",
	PlantDiagnosis:      "plant_diagnosis",
}
