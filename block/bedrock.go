package block

// bedrockToJava maps Bedrock block names to their Java equivalents where
// the two editions diverge. Names absent from the table are assumed to be
// shared between editions and pass through unchanged.
var bedrockToJava = map[string]string{
	"minecraft:concretePowder":   "minecraft:white_concrete_powder",
	"minecraft:grass":            "minecraft:grass_block",
	"minecraft:grass_path":       "minecraft:dirt_path",
	"minecraft:snow_layer":       "minecraft:snow",
	"minecraft:snow":             "minecraft:snow_block",
	"minecraft:web":              "minecraft:cobweb",
	"minecraft:waterlily":        "minecraft:lily_pad",
	"minecraft:hardened_clay":    "minecraft:terracotta",
	"minecraft:magma":            "minecraft:magma_block",
	"minecraft:melon_block":      "minecraft:melon",
	"minecraft:quartz_ore":       "minecraft:nether_quartz_ore",
	"minecraft:red_nether_brick": "minecraft:red_nether_bricks",
	"minecraft:slime":            "minecraft:slime_block",
	"minecraft:lit_pumpkin":      "minecraft:jack_o_lantern",
	"minecraft:noteblock":        "minecraft:note_block",
	"minecraft:golden_rail":      "minecraft:powered_rail",
	"minecraft:fence":            "minecraft:oak_fence",
	"minecraft:wooden_slab":      "minecraft:oak_slab",
	"minecraft:tallgrass":        "minecraft:short_grass",
	"minecraft:deadbush":         "minecraft:dead_bush",
	"minecraft:trip_wire":        "minecraft:tripwire",
	"minecraft:mob_spawner":      "minecraft:spawner",
	"minecraft:stone_stairs":     "minecraft:cobblestone_stairs",
	"air":                        "minecraft:air",
}

var javaToBedrock = func() map[string]string {
	m := make(map[string]string, len(bedrockToJava))
	for bedrock, java := range bedrockToJava {
		if _, taken := m[java]; !taken {
			m[java] = bedrock
		}
	}
	return m
}()

// BedrockToJava translates a Bedrock block name to its Java equivalent.
// ok reports whether the table recognized the name; names off the table
// are returned unchanged.
func BedrockToJava(name string) (string, bool) {
	if java, hit := bedrockToJava[name]; hit {
		return java, true
	}
	return name, false
}

// JavaToBedrock translates a Java block name to its Bedrock equivalent.
func JavaToBedrock(name string) (string, bool) {
	if bedrock, hit := javaToBedrock[name]; hit {
		return bedrock, true
	}
	return name, false
}

// ValidJavaName reports whether the name parses under the Java block-name
// grammar. Used by codecs to decide whether a translated Bedrock name
// deserves a diagnostic.
func ValidJavaName(name string) bool {
	return checkName(name) == nil
}
