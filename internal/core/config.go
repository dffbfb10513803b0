package core

type AppConfig interface {
	GetOwner() string
	GetRuntimePath() string
	GetDatabasePath() string
	GetPromptPath() string
	IsTelegramSelected() bool
}

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	GetAPIKey() string
	GetBaseURL() string
}

type TelegramConfig interface {
	GetTelegramToken() string
	GetTelegramOwnerID() int64
}
