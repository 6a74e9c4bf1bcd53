package database

// Repositories groups the repositories sharing one blob store
type Repositories struct {
	Notebook *NotebookRepository
	Stats    *StatsRepository
	Profiles *ProfileRepository
}

// NewRepositories creates every repository over store
func NewRepositories(store BlobStore) *Repositories {
	return &Repositories{
		Notebook: NewNotebookRepository(store),
		Stats:    NewStatsRepository(store),
		Profiles: NewProfileRepository(store),
	}
}
