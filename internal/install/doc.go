// Package install copies the Widevine CDM out of a staged Google Chrome
// disk image into a local Chromium install.
//
// The steps shell out to macOS tools and are not abstracted across
// platforms:
//
//	hdiutil attach -quiet -nobrowse <image>
//	cp -R "<volume>/.../WidevineCdm" "<chromium libraries>/WidevineCdm"
//	hdiutil detach -quiet -force <volume>
//
// followed by removal of the staged image. When a step after the mount
// fails, the volume is detached before the error is returned and the staged
// image is kept.
package install
