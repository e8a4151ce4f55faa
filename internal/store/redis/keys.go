package redis

const (
	// KeyPrefixDeployment is the prefix for deployment record keys
	KeyPrefixDeployment = "deploy-agent:deployment:"
	// KeyPrefixServiceLast is the prefix for the last deployment of a service
	KeyPrefixServiceLast = "deploy-agent:service-last:"
	// KeyAllDeployments is the key for the sorted set of deployment IDs (score: start time)
	KeyAllDeployments = "deploy-agent:deployments:all"
)

// DeploymentKey returns the Redis key for a deployment record by ID
func DeploymentKey(id string) string {
	return KeyPrefixDeployment + id
}

// ServiceLastKey returns the key holding the last deployment ID of a service
func ServiceLastKey(serviceID string) string {
	return KeyPrefixServiceLast + serviceID
}

// AllDeploymentsKey returns the key for the index of all deployment IDs
func AllDeploymentsKey() string {
	return KeyAllDeployments
}
