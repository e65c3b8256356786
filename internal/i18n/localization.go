// Package i18n holds the translated user-facing texts shared by the download
// core and the presentation layers.
package i18n

import "fmt"

// Supported language codes
const (
	LangSystem     = "system"
	LangEnglish    = "en"
	LangRussian    = "ru"
	LangPortuguese = "pt"
)

// Localization manages text translations for one language
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys used by the download core
const (
	KeyDebugPrefix        = "debug_prefix"
	KeyWarningPrefix      = "warning_prefix"
	KeyErrorPrefix        = "error_prefix"
	KeyRetryPrefix        = "retry_prefix"
	KeyGenericFallback    = "generic_fallback"
	KeyUntestedPlayer     = "untested_player"
	KeyNotAvailable       = "not_available"
	KeySpeedFormat        = "speed_format"
	KeyProgressLine       = "progress_line"
	KeyProgressFile       = "progress_file"
	KeySizeLine           = "size_line"
	KeyProgressFailed     = "progress_failed"
	KeyProgressData       = "progress_data"
	KeyStartingDownload   = "starting_download"
	KeyFetchingInfo       = "fetching_info"
	KeyTitle              = "title"
	KeyDuration           = "duration"
	KeyFormatsAvailable   = "formats_available"
	KeyBestQuality        = "best_quality"
	KeyStartingTransfer   = "starting_transfer"
	KeyFinishedProcessing = "finished_processing"
	KeyDownloadSucceeded  = "download_succeeded"
	KeyAlreadyDownloaded  = "already_downloaded"
	KeyEmptyResult        = "empty_result"
	KeyUntitled           = "untitled"
)

// Text keys used by the presentation layers
const (
	KeyAppTitle       = "app_title"
	KeyEnterURL       = "enter_url"
	KeyFind           = "find"
	KeySearching      = "searching"
	KeyFolder         = "folder"
	KeySaveFolder     = "save_folder"
	KeyFormat         = "format"
	KeyDownload       = "download"
	KeyCancel         = "cancel"
	KeyOpenFolder     = "open_folder"
	KeySettings       = "settings"
	KeyLanguage       = "language"
	KeySave           = "save"
	KeyPreflight      = "preflight"
	KeyPleaseEnterURL = "please_enter_url"
	KeyInvalidURL     = "invalid_url"
	KeyErrorTitle     = "error_title"
	KeyInfoFailed     = "info_failed"
	KeyUploader       = "uploader"
	KeyViews          = "views"
	KeyLoadingInfo    = "loading_info"
	KeyDownloadTitle  = "download_title"
	KeyElapsed        = "elapsed"
	KeyBusy           = "busy"
	KeyClose          = "close"
)

// NewLocalization creates a localization manager set to English
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: LangEnglish,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language; unknown codes are ignored
func (l *Localization) SetLanguage(lang string) {
	if lang == LangSystem || lang == "" {
		lang = LangEnglish
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts[LangEnglish]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// Textf formats the localized text for key with args
func (l *Localization) Textf(key string, args ...any) string {
	return fmt.Sprintf(l.GetText(key), args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangEnglish:    "English",
		LangRussian:    "Русский",
		LangPortuguese: "Português",
	}
}

func (l *Localization) initializeTexts() {
	l.texts[LangEnglish] = map[string]string{
		KeyDebugPrefix:        "Debug: %s",
		KeyWarningPrefix:      "Warning: %s",
		KeyErrorPrefix:        "Error: %s",
		KeyRetryPrefix:        "Retrying: %s",
		KeyGenericFallback:    "Using the generic information extractor",
		KeyUntestedPlayer:     "Attention: a new player version is in use",
		KeyNotAvailable:       "N/A",
		KeySpeedFormat:        "%.2f MB/s",
		KeyProgressLine:       "Progress: %d%% | Speed: %s | ETA: %s",
		KeyProgressFile:       "File: %s",
		KeySizeLine:           "Downloaded: %s of %s",
		KeyProgressFailed:     "Progress update failed: %s",
		KeyProgressData:       "Progress data: %+v",
		KeyStartingDownload:   "Starting download...",
		KeyFetchingInfo:       "Fetching video info...",
		KeyTitle:              "Title: %s",
		KeyDuration:           "Duration: %s",
		KeyFormatsAvailable:   "Available formats: %d",
		KeyBestQuality:        "Best quality: %dp",
		KeyStartingTransfer:   "Starting transfer...",
		KeyFinishedProcessing: "Download finished, processing file...",
		KeyDownloadSucceeded:  "Download completed successfully!",
		KeyAlreadyDownloaded:  "The file has already been downloaded.",
		KeyEmptyResult:        "Could not get video info",
		KeyUntitled:           "Untitled",

		KeyAppTitle:       "Video Downloader",
		KeyEnterURL:       "Paste a video link",
		KeyFind:           "Find",
		KeySearching:      "Searching...",
		KeyFolder:         "Folder...",
		KeySaveFolder:     "Save folder: %s",
		KeyFormat:         "Format:",
		KeyDownload:       "Download",
		KeyCancel:         "Cancel",
		KeyOpenFolder:     "Open folder",
		KeySettings:       "Settings",
		KeyLanguage:       "Language",
		KeySave:           "Save",
		KeyPreflight:      "Refresh video info before downloading",
		KeyPleaseEnterURL: "Please enter a video URL",
		KeyInvalidURL:     "Invalid URL",
		KeyErrorTitle:     "Error",
		KeyInfoFailed:     "Could not get video info:\n%s",
		KeyUploader:       "Uploader: %s",
		KeyViews:          "Views: %s",
		KeyLoadingInfo:    "Loading video info...",
		KeyDownloadTitle:  "Downloading video",
		KeyElapsed:        "Search time: %s",
		KeyBusy:           "Another operation is still running",
		KeyClose:          "Close",
	}

	l.texts[LangRussian] = map[string]string{
		KeyDebugPrefix:        "Отладка: %s",
		KeyWarningPrefix:      "Предупреждение: %s",
		KeyErrorPrefix:        "Ошибка: %s",
		KeyRetryPrefix:        "Повторная попытка: %s",
		KeyGenericFallback:    "Используем стандартный метод получения информации",
		KeyUntestedPlayer:     "Внимание: используется новая версия плеера",
		KeyNotAvailable:       "N/A",
		KeySpeedFormat:        "%.2f МБ/с",
		KeyProgressLine:       "Прогресс: %d%% | Скорость: %s | Осталось: %s",
		KeyProgressFile:       "Файл: %s",
		KeySizeLine:           "Скачано: %s из %s",
		KeyProgressFailed:     "Ошибка при обновлении прогресса: %s",
		KeyProgressData:       "Данные прогресса: %+v",
		KeyStartingDownload:   "Начинаем загрузку...",
		KeyFetchingInfo:       "Получаем информацию о видео...",
		KeyTitle:              "Название: %s",
		KeyDuration:           "Длительность: %s",
		KeyFormatsAvailable:   "Доступно форматов: %d",
		KeyBestQuality:        "Лучшее качество: %dp",
		KeyStartingTransfer:   "Начинаем скачивание...",
		KeyFinishedProcessing: "Загрузка завершена, обрабатываем файл...",
		KeyDownloadSucceeded:  "Загрузка завершена успешно!",
		KeyAlreadyDownloaded:  "Файл уже был скачан.",
		KeyEmptyResult:        "Не удалось получить информацию о видео",
		KeyUntitled:           "Без названия",

		KeyAppTitle:       "Видео Загрузчик",
		KeyEnterURL:       "Вставьте ссылку на видео",
		KeyFind:           "Найти",
		KeySearching:      "Поиск...",
		KeyFolder:         "Папка…",
		KeySaveFolder:     "Папка сохранения: %s",
		KeyFormat:         "Формат:",
		KeyDownload:       "Скачать",
		KeyCancel:         "Отмена",
		KeyOpenFolder:     "Открыть папку",
		KeySettings:       "Настройки",
		KeyLanguage:       "Язык",
		KeySave:           "Сохранить",
		KeyPreflight:      "Обновлять информацию перед скачиванием",
		KeyPleaseEnterURL: "Пожалуйста, введите URL видео",
		KeyInvalidURL:     "Неверный URL",
		KeyErrorTitle:     "Ошибка",
		KeyInfoFailed:     "Не удалось получить информацию о видео:\n%s",
		KeyUploader:       "Автор: %s",
		KeyViews:          "Просмотры: %s",
		KeyLoadingInfo:    "Идет загрузка информации...",
		KeyDownloadTitle:  "Загрузка видео",
		KeyElapsed:        "Время поиска: %s",
		KeyBusy:           "Предыдущая операция еще выполняется",
		KeyClose:          "Закрыть",
	}

	l.texts[LangPortuguese] = map[string]string{
		KeyDebugPrefix:        "Depuração: %s",
		KeyWarningPrefix:      "Aviso: %s",
		KeyErrorPrefix:        "Erro: %s",
		KeyRetryPrefix:        "Tentando novamente: %s",
		KeyGenericFallback:    "Usando o extrator de informações genérico",
		KeyUntestedPlayer:     "Atenção: uma nova versão do player está em uso",
		KeyNotAvailable:       "N/D",
		KeySpeedFormat:        "%.2f MB/s",
		KeyProgressLine:       "Progresso: %d%% | Velocidade: %s | Restante: %s",
		KeyProgressFile:       "Arquivo: %s",
		KeySizeLine:           "Baixado: %s de %s",
		KeyProgressFailed:     "Falha ao atualizar o progresso: %s",
		KeyProgressData:       "Dados de progresso: %+v",
		KeyStartingDownload:   "Iniciando download...",
		KeyFetchingInfo:       "Obtendo informações do vídeo...",
		KeyTitle:              "Título: %s",
		KeyDuration:           "Duração: %s",
		KeyFormatsAvailable:   "Formatos disponíveis: %d",
		KeyBestQuality:        "Melhor qualidade: %dp",
		KeyStartingTransfer:   "Iniciando transferência...",
		KeyFinishedProcessing: "Download concluído, processando arquivo...",
		KeyDownloadSucceeded:  "Download concluído com sucesso!",
		KeyAlreadyDownloaded:  "O arquivo já foi baixado.",
		KeyEmptyResult:        "Não foi possível obter informações do vídeo",
		KeyUntitled:           "Sem título",

		KeyAppTitle:       "Video Downloader",
		KeyEnterURL:       "Cole o link do vídeo",
		KeyFind:           "Buscar",
		KeySearching:      "Buscando...",
		KeyFolder:         "Pasta...",
		KeySaveFolder:     "Pasta de destino: %s",
		KeyFormat:         "Formato:",
		KeyDownload:       "Baixar",
		KeyCancel:         "Cancelar",
		KeyOpenFolder:     "Abrir pasta",
		KeySettings:       "Configurações",
		KeyLanguage:       "Idioma",
		KeySave:           "Salvar",
		KeyPreflight:      "Atualizar informações antes de baixar",
		KeyPleaseEnterURL: "Por favor, digite a URL do vídeo",
		KeyInvalidURL:     "URL inválida",
		KeyErrorTitle:     "Erro",
		KeyInfoFailed:     "Não foi possível obter informações do vídeo:\n%s",
		KeyUploader:       "Autor: %s",
		KeyViews:          "Visualizações: %s",
		KeyLoadingInfo:    "Carregando informações...",
		KeyDownloadTitle:  "Baixando vídeo",
		KeyElapsed:        "Tempo de busca: %s",
		KeyBusy:           "Outra operação ainda está em andamento",
		KeyClose:          "Fechar",
	}
}
