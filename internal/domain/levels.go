package domain

// The level graph is read-only topology: three stages of ten levels each,
// one topic per level. Question content for a topic comes from the
// external provider.
type Stage struct {
	ID     int
	Name   string
	Levels []int
}

type Level struct {
	ID    int
	Stage int
	Topic string
}

var Stages = []Stage{
	{ID: 1, Name: "JavaScript Basics", Levels: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
	{ID: 2, Name: "JavaScript Advanced", Levels: []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}},
	{ID: 3, Name: "JavaScript Expert", Levels: []int{20, 21, 22, 23, 24, 25, 26, 27, 28, 29}},
}

var Levels = []Level{
	{ID: 0, Stage: 1, Topic: "variables"},
	{ID: 1, Stage: 1, Topic: "loops"},
	{ID: 2, Stage: 1, Topic: "functions"},
	{ID: 3, Stage: 1, Topic: "arrays"},
	{ID: 4, Stage: 1, Topic: "debugging"},
	{ID: 5, Stage: 1, Topic: "objects"},
	{ID: 6, Stage: 1, Topic: "async"},
	{ID: 7, Stage: 1, Topic: "dom"},
	{ID: 8, Stage: 1, Topic: "es6"},
	{ID: 9, Stage: 1, Topic: "algorithms"},
	{ID: 10, Stage: 2, Topic: "closures"},
	{ID: 11, Stage: 2, Topic: "prototypes"},
	{ID: 12, Stage: 2, Topic: "promises"},
	{ID: 13, Stage: 2, Topic: "generators"},
	{ID: 14, Stage: 2, Topic: "modules"},
	{ID: 15, Stage: 2, Topic: "regex"},
	{ID: 16, Stage: 2, Topic: "performance"},
	{ID: 17, Stage: 2, Topic: "security"},
	{ID: 18, Stage: 2, Topic: "patterns"},
	{ID: 19, Stage: 2, Topic: "testing"},
	{ID: 20, Stage: 3, Topic: "typescript"},
	{ID: 21, Stage: 3, Topic: "webpack"},
	{ID: 22, Stage: 3, Topic: "react"},
	{ID: 23, Stage: 3, Topic: "nodejs"},
	{ID: 24, Stage: 3, Topic: "graphql"},
	{ID: 25, Stage: 3, Topic: "microservices"},
	{ID: 26, Stage: 3, Topic: "docker"},
	{ID: 27, Stage: 3, Topic: "cicd"},
	{ID: 28, Stage: 3, Topic: "cloud"},
	{ID: 29, Stage: 3, Topic: "architecture"},
}

func LevelByID(id int) (Level, bool) {
	for _, l := range Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}

func StageLevels(stageID int) []int {
	for _, s := range Stages {
		if s.ID == stageID {
			return s.Levels
		}
	}
	return nil
}
