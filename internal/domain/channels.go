package domain

// GeneralChannel is the id of the catch-all channel. The API calls it
// "default"; "general" is accepted as an alias.
const GeneralChannel = "default"

// ChannelInfo is a catalog entry: the channel plus its presentation.
type ChannelInfo struct {
	Channel
	Icon string
	Hint string
}

var channelCatalog = []ChannelInfo{
	{
		Channel: Channel{ID: GeneralChannel, Name: "Ogólne"},
		Icon:    "💬",
		Hint:    "Zadaj dowolne pytanie dotyczące prowadzenia firmy w Polsce.",
	},
	{
		Channel: Channel{ID: "ksef", Name: "KSeF"},
		Icon:    "📄",
		Hint:    "Pytaj o Krajowy System e-Faktur: terminy wdrożenia, wymagania techniczne, procedury.",
	},
	{
		Channel: Channel{ID: "b2b", Name: "B2B"},
		Icon:    "💼",
		Hint:    "Pomogę ocenić ryzyko Twojej umowy B2B według kryteriów Inspekcji Pracy.",
	},
	{
		Channel: Channel{ID: "zus", Name: "ZUS"},
		Icon:    "🏥",
		Hint:    "Obliczę składki ZUS i wyjaśnię zasady ubezpieczeń dla przedsiębiorców.",
	},
	{
		Channel: Channel{ID: "vat", Name: "VAT"},
		Icon:    "💰",
		Hint:    "Pomogę z JPK_VAT, VAT OSS i innymi rozliczeniami podatkowymi.",
	},
}

// Channels returns the channel catalog in display order.
func Channels() []ChannelInfo {
	return append([]ChannelInfo(nil), channelCatalog...)
}

// LookupChannel finds a catalog entry by id.
func LookupChannel(id string) (ChannelInfo, bool) {
	if id == "general" {
		id = GeneralChannel
	}
	for _, c := range channelCatalog {
		if c.ID == id {
			return c, true
		}
	}
	return ChannelInfo{}, false
}

// QuickQuestion is a canned prompt bound to a channel.
type QuickQuestion struct {
	Label    string
	Question string
	Channel  string
}

// QuickQuestions returns the canned prompts shown before the first send.
func QuickQuestions() []QuickQuestion {
	return []QuickQuestion{
		{Label: "KSeF", Question: "Kiedy KSeF będzie obowiązkowy?", Channel: "ksef"},
		{Label: "B2B", Question: "Jak ocenić czy moja umowa B2B jest bezpieczna?", Channel: "b2b"},
		{Label: "ZUS", Question: "Ile wynosi składka zdrowotna na ryczałcie w 2025?", Channel: "zus"},
		{Label: "VAT", Question: "Co to jest VAT OSS i kiedy go stosować?", Channel: "vat"},
	}
}
