package sources

// DefaultURLs is the built in source list used when none is configured
var DefaultURLs = []string{
	"https://raw.githubusercontent.com/igareck/vpn-configs-for-russia/refs/heads/main/WHITE-CIDR-RU-checked.txt",
	"https://raw.githubusercontent.com/zieng2/wl/refs/heads/main/vless_universal.txt",
	"https://raw.githubusercontent.com/zieng2/wl/main/vless_lite.txt",
	"https://gitverse.ru/api/repos/Vsevj/OBS/raw/branch/master/wwh",
	"https://storage.yandexcloud.net/cid-vpn/whitelist.txt",
	"https://raw.githubusercontent.com/koteey/Ms.Kerosin-VPN/refs/heads/main/proxies.txt",
	"https://raw.githubusercontent.com/HikaruApps/WhiteLattice/refs/heads/main/subscriptions/main-sub.txt",
	"https://raw.githubusercontent.com/FalerChannel/FalerChannel/refs/heads/main/configs",
	"https://raw.githubusercontent.com/officialdakari/psychic-octo-tribble/refs/heads/main/subwl.txt",
	"https://raw.githubusercontent.com/RKPchannel/RKP_bypass_configs/refs/heads/main/configs",
	"https://raw.githubusercontent.com/Ai123999/WhiteeListSub/refs/heads/main/whitelistkeys",
	"https://raw.githubusercontent.com/EtoNeYaProject/etoneyaproject.github.io/refs/heads/main/whitelist",
	"https://raw.githubusercontent.com/gbwltg/gbwl/refs/heads/main/m3EsPqwmlc",
	"https://gitverse.ru/api/repos/LowiK/LowiKLive/raw/branch/main/ObhodBSfree.txt",
	"https://raw.githubusercontent.com/bywarm/wlr/refs/heads/main/test.txt",
}

// ChromeUA is sent on every request; some hosts refuse obvious bots
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/138.0.0.0 Safari/537.36"
