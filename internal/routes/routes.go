package routes

const (
	Health          = "/health"
	PoapMint        = "/api/v1/poaps/mint"
	PoapsByUser     = "/api/v1/poaps/user/{userID}"
	PoapsByProject  = "/api/v1/poaps/project/{projectID}"
	PoapMetadataURL = "/api/v1/poaps/{poapID}/metadata-url"
)
