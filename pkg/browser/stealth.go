package browser

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthScript runs before any page script in every document. It hides
// the automation markers a headless Chrome exposes.
const stealthScript = `(() => {
  const define = (obj, prop, value) => {
    try { Object.defineProperty(obj, prop, { get: () => value, configurable: true }); } catch (e) {}
  };

  define(navigator, 'webdriver', undefined);
  try { delete Object.getPrototypeOf(navigator).webdriver; } catch (e) {}

  const fakeList = (proto, entries, key) => {
    const list = Object.create(proto);
    entries.forEach((entry, i) => { list[i] = entry; list[entry[key]] = entry; });
    Object.defineProperty(list, 'length', { value: entries.length });
    Object.defineProperty(list, 'item', { value: (i) => list[i] || null });
    Object.defineProperty(list, 'namedItem', { value: (n) => list[n] || null });
    return list;
  };

  const plugins = fakeList(PluginArray.prototype, [
    { name: 'PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
    { name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
    { name: 'Chromium PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
  ].map((p) => Object.setPrototypeOf(p, Plugin.prototype)), 'name');
  Object.defineProperty(plugins, 'refresh', { value: () => {} });
  define(navigator, 'plugins', plugins);

  define(navigator, 'mimeTypes', fakeList(MimeTypeArray.prototype, [
    { type: 'application/pdf', suffixes: 'pdf', description: 'Portable Document Format', enabledPlugin: plugins[0] },
    { type: 'text/pdf', suffixes: 'pdf', description: 'Portable Document Format', enabledPlugin: plugins[0] },
  ].map((m) => Object.setPrototypeOf(m, MimeType.prototype)), 'type'));

  define(navigator, 'languages', Object.freeze(['en-US', 'en']));
  if (!navigator.hardwareConcurrency) define(navigator, 'hardwareConcurrency', 8);
  if (!navigator.deviceMemory) define(navigator, 'deviceMemory', 8);

  if (!window.chrome) {
    Object.defineProperty(window, 'chrome', { value: {}, writable: true, enumerable: true });
  }
  if (!window.chrome.runtime) {
    window.chrome.runtime = {
      OnInstalledReason: { CHROME_UPDATE: 'chrome_update', INSTALL: 'install', UPDATE: 'update' },
      PlatformOs: { LINUX: 'linux', MAC: 'mac', WIN: 'win' },
      connect: () => {},
      sendMessage: () => {},
    };
  }

  if (window.Permissions && Permissions.prototype.query) {
    const query = Permissions.prototype.query;
    Permissions.prototype.query = function (params) {
      if (params && params.name === 'notifications') {
        return Promise.resolve({ state: Notification.permission });
      }
      return query.call(this, params);
    };
  }

  const webgl = {
    apply(target, self, args) {
      if (args[0] === 37445) return 'Intel Inc.';
      if (args[0] === 37446) return 'Intel Iris OpenGL Engine';
      return Reflect.apply(target, self, args);
    },
  };
  for (const ctx of [window.WebGLRenderingContext, window.WebGL2RenderingContext]) {
    if (ctx) ctx.prototype.getParameter = new Proxy(ctx.prototype.getParameter, webgl);
  }
})();`

// allocatorOptions returns the Chrome flags for cfg.
func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("disable-infobars", true),

		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),

		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.Flag("lang", "en-US,en"),
		chromedp.Flag("accept-lang", "en-US,en;q=0.9"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	return opts
}

// injectStealth registers stealthScript for every document the tab loads.
func injectStealth() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	})
}
