package ports

// Solution is what a project parser extracts from an external project
// description. Slices keep the order in which the parser found the entries.
type Solution struct {
	Name         string   `json:"name"`
	RootPath     string   `json:"root_path"`
	ProjectItems []string `json:"project_items"`
	IncludePaths []string `json:"include_paths"`
}

// SolutionParser reads an external project description (e.g. a Visual Studio
// .sln). Reported paths are absolute, slash-separated and free of duplicates.
type SolutionParser interface {
	OpenSolution(path string) (*Solution, error)
}
