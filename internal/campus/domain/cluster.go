package domain

// Cluster is a physical seating zone on campus as known to the upstream API.
type Cluster struct {
	ID    string `yaml:"id" json:"id"`
	Code  string `yaml:"code" json:"code"`   // short display code, e.g. "ay"
	Floor string `yaml:"floor" json:"floor"` // display group used when rendering
}

// DefaultClusters is the deployment table of the campus this bot was written for.
func DefaultClusters() []Cluster {
	return []Cluster{
		{ID: "36621", Code: "ay", Floor: "2nd Floor"},
		{ID: "36622", Code: "er", Floor: "2nd Floor"},
		{ID: "36623", Code: "tu", Floor: "3rd Floor"},
		{ID: "36624", Code: "si", Floor: "3rd Floor"},
	}
}
