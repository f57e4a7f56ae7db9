package config

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(location, credentials string) *Storage {
	return &Storage{location: location, credentials: credentials}
}

// NewNotifyForTest creates a Notify config for testing purposes
func NewNotifyForTest(webhookURL, botToken, channel string) *Notify {
	return &Notify{webhookURL: webhookURL, botToken: botToken, channel: channel}
}

// NewClusterForTest creates a Cluster config for testing purposes
func NewClusterForTest(context string, manifests []string) *Cluster {
	return &Cluster{context: context, manifests: manifests}
}

// Kubeconfig returns the configured kubeconfig path
func (c *Cluster) Kubeconfig() string {
	return c.kubeconfig
}
